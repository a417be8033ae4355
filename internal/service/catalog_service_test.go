package service

import (
	"context"
	"langquiz_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourAnswers(correct int) []AnswerInput {
	answers := []AnswerInput{{Text: "go"}, {Text: "goes"}, {Text: "went"}, {Text: "gone"}}
	if correct >= 0 {
		answers[correct].Correct = true
	}
	return answers
}

func TestValidateQuestion(t *testing.T) {
	assert.NoError(t, ValidateQuestion(QuestionInput{Text: "She ___ home", Published: true, Answers: fourAnswers(1)}))
	assert.NoError(t, ValidateQuestion(QuestionInput{Text: "Draft", Answers: fourAnswers(-1)[:2]}))

	cases := map[string]QuestionInput{
		"empty text":        {Text: "  ", Answers: fourAnswers(0)},
		"no correct":        {Text: "Q", Published: true, Answers: fourAnswers(-1)},
		"three answers":     {Text: "Q", Published: true, Answers: fourAnswers(0)[:3]},
		"five answers":      {Text: "Q", Answers: append(fourAnswers(0), AnswerInput{Text: "going"})},
		"two correct":       {Text: "Q", Answers: []AnswerInput{{Text: "a", Correct: true}, {Text: "b", Correct: true}}},
		"duplicate answers": {Text: "Q", Answers: []AnswerInput{{Text: "a"}, {Text: "a"}}},
		"empty answer":      {Text: "Q", Answers: []AnswerInput{{Text: ""}}},
	}
	for name, q := range cases {
		assert.ErrorIs(t, ValidateQuestion(q), util.ErrInvalidCatalog, name)
	}
}

func newCatalogFixture() (*CatalogService, *fakeCategories, *fakeQuestions, *fakeAnswers) {
	categories := newFakeCategories()
	questions := &fakeQuestions{}
	answers := newFakeAnswers()
	return NewCatalogService(categories, questions, answers), categories, questions, answers
}

func TestImportCategory(t *testing.T) {
	svc, categories, questions, answers := newCatalogFixture()
	ctx := context.Background()

	res, err := svc.ImportCategory(ctx, CategoryInput{
		Name:      "English",
		Published: true,
		Questions: []QuestionInput{
			{Text: "She ___ home yesterday", Published: true, Answers: fourAnswers(2)},
			{Text: "He ___ to school every day", Published: true, Answers: fourAnswers(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Skipped)
	assert.Len(t, categories.categories, 1)
	assert.Len(t, answers.answers, 4, "answers are shared by text")

	ids, _ := questions.EligibleIDs(ctx, res.Category.ID)
	assert.Len(t, ids, 2)

	rows, _ := questions.AnswerRows(ctx, ids[:1])
	require.Len(t, rows, 4)
	right := 0
	for _, r := range rows {
		if r.IsRightAnswer {
			right++
			assert.Equal(t, answers.answers["went"].ID, r.AnswerID)
		}
	}
	assert.Equal(t, 1, right)

	// re-import is idempotent
	res, err = svc.ImportCategory(ctx, CategoryInput{
		Name:      "English",
		Published: true,
		Questions: []QuestionInput{{Text: "She ___ home yesterday", Published: true, Answers: fourAnswers(2)}},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, questions.questions, 2)
}

func TestImportCategoryRejectsInvalidBeforeWriting(t *testing.T) {
	svc, categories, questions, _ := newCatalogFixture()

	_, err := svc.ImportCategory(context.Background(), CategoryInput{
		Name: "English",
		Questions: []QuestionInput{
			{Text: "fine", Published: true, Answers: fourAnswers(0)},
			{Text: "broken", Published: true, Answers: fourAnswers(-1)},
		},
	})
	assert.ErrorIs(t, err, util.ErrInvalidCatalog)
	assert.Empty(t, categories.categories)
	assert.Empty(t, questions.questions)

	_, err = svc.ImportCategory(context.Background(), CategoryInput{Name: " "})
	assert.ErrorIs(t, err, util.ErrInvalidCatalog)
}
