package service

import (
	"context"
	"fmt"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quizFixture struct {
	svc        *QuizService
	categories *fakeCategories
	questions  *fakeQuestions
	attempts   *fakeAttempts
	// published questions of category 1 in id order
	eligible []model.Question
}

func newQuizFixture(t *testing.T, eligible int) *quizFixture {
	t.Helper()
	f := &quizFixture{
		categories: newFakeCategories(),
		questions:  &fakeQuestions{},
		attempts:   &fakeAttempts{},
	}
	_, _ = f.categories.Upsert(context.Background(), "English", true)
	_, _ = f.categories.Upsert(context.Background(), "German", true)

	for i := 0; i < eligible; i++ {
		f.eligible = append(f.eligible, f.questions.add(1, true, fmt.Sprintf("I ___ question %d", i)))
		if i == 2 {
			f.questions.add(1, false, "draft question")
			f.questions.add(2, true, "Ich ___ Deutsch")
		}
	}

	f.svc = NewQuizService(f.categories, f.questions, f.attempts, NewRandSampler(42), 10)
	return f
}

func (f *quizFixture) attempt(userID uint, qs ...model.Question) {
	for _, q := range qs {
		f.attempts.records = append(f.attempts.records, model.AttemptRecord{
			UserID: userID, QuestionID: q.ID, AnswerID: rightAnswer(q),
		})
	}
}

func ids(qs []LanguageQuestion) []uint {
	out := make([]uint, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.QuestionID)
	}
	return out
}

func modelIDs(qs []model.Question) []uint {
	out := make([]uint, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestSelectQuestionsAnonymousSample(t *testing.T) {
	f := newQuizFixture(t, 15)
	eligible := modelIDs(f.eligible)

	for i := 0; i < 5; i++ {
		got, err := f.svc.SelectQuestions(context.Background(), 1, nil, 10)
		require.NoError(t, err)
		require.Len(t, got, 10)

		seen := map[uint]bool{}
		for _, id := range ids(got) {
			assert.False(t, seen[id], "duplicate question %d", id)
			seen[id] = true
			assert.Contains(t, eligible, id)
		}
	}
}

func TestSelectQuestionsAnonymousFewerThanLimit(t *testing.T) {
	f := newQuizFixture(t, 3)

	got, err := f.svc.SelectQuestions(context.Background(), 1, nil, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, modelIDs(f.eligible), ids(got))
}

func TestSelectQuestionsEmptyCategory(t *testing.T) {
	f := newQuizFixture(t, 0)

	got, err := f.svc.SelectQuestions(context.Background(), 1, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectQuestionsFreshInNaturalOrder(t *testing.T) {
	f := newQuizFixture(t, 15)
	user := uint(7)
	f.attempt(user, f.eligible[0], f.eligible[4], f.eligible[5])

	got, err := f.svc.SelectQuestions(context.Background(), 1, &user, 10)
	require.NoError(t, err)

	var want []uint
	for i, q := range f.eligible {
		if i == 0 || i == 4 || i == 5 {
			continue
		}
		want = append(want, q.ID)
	}
	assert.Equal(t, want[:10], ids(got))
}

func TestSelectQuestionsNeverRepeatsWhileEnoughFresh(t *testing.T) {
	f := newQuizFixture(t, 12)
	user := uint(3)
	f.attempt(user, f.eligible[1], f.eligible[7])

	// 12 eligible, 2 attempted, limit 10: exactly at the threshold
	got, err := f.svc.SelectQuestions(context.Background(), 1, &user, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.NotContains(t, ids(got), f.eligible[1].ID)
	assert.NotContains(t, ids(got), f.eligible[7].ID)
}

func TestSelectQuestionsFallsBackToFullSample(t *testing.T) {
	f := newQuizFixture(t, 12)
	user := uint(3)
	f.attempt(user, f.eligible[0], f.eligible[1], f.eligible[2])

	got, err := f.svc.SelectQuestions(context.Background(), 1, &user, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	seen := map[uint]bool{}
	for _, id := range ids(got) {
		assert.False(t, seen[id])
		seen[id] = true
		assert.Contains(t, modelIDs(f.eligible), id)
	}
}

func TestSelectQuestionsOtherUsersAttemptsIgnored(t *testing.T) {
	f := newQuizFixture(t, 10)
	f.attempt(99, f.eligible...)
	user := uint(1)

	got, err := f.svc.SelectQuestions(context.Background(), 1, &user, 10)
	require.NoError(t, err)
	assert.Equal(t, modelIDs(f.eligible), ids(got))
}

func TestSelectQuestionsOutputShape(t *testing.T) {
	f := newQuizFixture(t, 1)
	q := f.eligible[0]
	user := uint(1)

	got, err := f.svc.SelectQuestions(context.Background(), 1, &user, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, q.ID, got[0].QuestionID)
	assert.Equal(t, []string{"I", "___", "question", "0"}, got[0].Question)
	require.Len(t, got[0].Answers, 4)
	for _, qa := range q.Answers {
		assert.Equal(t, qa.Answer.Text, got[0].Answers[qa.AnswerID])
	}
}

func TestSelectQuestionsZeroLimit(t *testing.T) {
	f := newQuizFixture(t, 15)
	user := uint(1)

	got, err := f.svc.SelectQuestions(context.Background(), 1, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.SelectQuestions(context.Background(), 1, &user, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetPublishedCategory(t *testing.T) {
	f := newQuizFixture(t, 1)
	_, _ = f.categories.Upsert(context.Background(), "Hidden", false)

	c, err := f.svc.GetPublishedCategory(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "English", c.Name)

	_, err = f.svc.GetPublishedCategory(context.Background(), 3)
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)
	_, err = f.svc.GetPublishedCategory(context.Background(), 100)
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)

	list, err := f.svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestScoreEmptySubmission(t *testing.T) {
	f := newQuizFixture(t, 3)
	user := uint(42)

	got, err := f.svc.Score(context.Background(), map[string]string{}, &user)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, f.attempts.bulkCalls)
	assert.Empty(t, f.attempts.records)
}

func TestScoreRecordsOnlyCorrectAnswers(t *testing.T) {
	f := newQuizFixture(t, 1)
	q := f.eligible[0]
	qid := fmt.Sprint(q.ID)
	user := uint(7)

	got, err := f.svc.Score(context.Background(), map[string]string{qid: fmt.Sprint(rightAnswer(q))}, &user)
	require.NoError(t, err)
	assert.Equal(t, map[uint]uint{q.ID: rightAnswer(q)}, got)
	require.Len(t, f.attempts.records, 1)
	assert.Equal(t, model.AttemptRecord{UserID: 7, QuestionID: q.ID, AnswerID: rightAnswer(q)}, f.attempts.records[0])

	f.attempts.records = nil
	got, err = f.svc.Score(context.Background(), map[string]string{qid: fmt.Sprint(q.ID*10 + 3)}, &user)
	require.NoError(t, err)
	assert.Equal(t, map[uint]uint{q.ID: rightAnswer(q)}, got)
	assert.Empty(t, f.attempts.records)
}

func TestScoreMixedSubmission(t *testing.T) {
	f := newQuizFixture(t, 3)
	a, b, c := f.eligible[0], f.eligible[1], f.eligible[2]
	user := uint(5)

	got, err := f.svc.Score(context.Background(), map[string]string{
		fmt.Sprint(a.ID): fmt.Sprint(rightAnswer(a)),
		fmt.Sprint(b.ID): "",
		fmt.Sprint(c.ID): fmt.Sprint(c.ID*10 + 4),
		"9999":           "1",
	}, &user)
	require.NoError(t, err)

	assert.Equal(t, map[uint]uint{
		a.ID: rightAnswer(a),
		b.ID: rightAnswer(b),
		c.ID: rightAnswer(c),
	}, got)
	assert.Equal(t, 1, f.attempts.bulkCalls)
	require.Len(t, f.attempts.records, 1)
	assert.Equal(t, a.ID, f.attempts.records[0].QuestionID)
}

func TestScoreAnonymousWritesNothing(t *testing.T) {
	f := newQuizFixture(t, 1)
	q := f.eligible[0]

	got, err := f.svc.Score(context.Background(), map[string]string{fmt.Sprint(q.ID): fmt.Sprint(rightAnswer(q))}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[uint]uint{q.ID: rightAnswer(q)}, got)
	assert.Zero(t, f.attempts.bulkCalls)
}

func TestScoreRepeatedCorrectAnswerKeepsOneRecord(t *testing.T) {
	f := newQuizFixture(t, 1)
	q := f.eligible[0]
	user := uint(7)
	sub := map[string]string{fmt.Sprint(q.ID): fmt.Sprint(rightAnswer(q))}

	_, err := f.svc.Score(context.Background(), sub, &user)
	require.NoError(t, err)
	_, err = f.svc.Score(context.Background(), sub, &user)
	require.NoError(t, err)
	assert.Len(t, f.attempts.records, 1)
}

func TestParseSubmission(t *testing.T) {
	got, err := ParseSubmission(map[string]string{"1": "12", "2": ""})
	require.NoError(t, err)
	assert.Equal(t, map[uint]uint{1: 12, 2: 0}, got)

	for _, bad := range []map[string]string{
		{"x": "1"},
		{"1": "y"},
		{"-1": "2"},
		{"1": "2.5"},
	} {
		_, err := ParseSubmission(bad)
		assert.ErrorIs(t, err, util.ErrMalformedInput, "%v", bad)
	}
}

func TestScoreRejectsMalformedInput(t *testing.T) {
	f := newQuizFixture(t, 1)
	_, err := f.svc.Score(context.Background(), map[string]string{"abc": "1"}, nil)
	assert.ErrorIs(t, err, util.ErrMalformedInput)
}

func TestRandSampler(t *testing.T) {
	s := NewRandSampler(1)
	pool := []uint{1, 2, 3, 4, 5, 6}

	got := s.Sample(pool, 4)
	assert.Len(t, got, 4)
	assert.Equal(t, []uint{1, 2, 3, 4, 5, 6}, pool, "input must not be reordered")
	assert.Subset(t, pool, got)

	assert.ElementsMatch(t, pool, s.Sample(pool, 10))
	assert.Empty(t, s.Sample(pool, 0))
	assert.Empty(t, s.Sample(nil, 3))

	// same seed, same sequence
	assert.Equal(t, NewRandSampler(9).Sample(pool, 3), NewRandSampler(9).Sample(pool, 3))
}
