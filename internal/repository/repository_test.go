package repository

import (
	"context"
	"langquiz_backend/internal/model"
	"langquiz_backend/pkg/database"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 使用临时 SQLite 文件，开启外键以验证级联规则
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "quiz.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createUser(t *testing.T, db *gorm.DB, u model.User) *model.User {
	t.Helper()
	if u.Email == "" {
		u.Email = u.Username + "@example.com"
	}
	if u.Password == "" {
		u.Password = "hash"
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), &u))
	return &u
}

func createAnswers(t *testing.T, db *gorm.DB, texts ...string) []model.Answer {
	t.Helper()
	repo := NewAnswerRepository(db)
	answers := make([]model.Answer, 0, len(texts))
	for _, text := range texts {
		a, err := repo.FirstOrCreate(context.Background(), text)
		require.NoError(t, err)
		answers = append(answers, *a)
	}
	return answers
}

// createQuestion 保存一个已发布题目，第 right 个答案为正确答案
func createQuestion(t *testing.T, db *gorm.DB, text string, categoryID *uint, right int) (*model.Question, []model.Answer) {
	t.Helper()
	answers := createAnswers(t, db, text+" a", text+" b", text+" c", text+" d")
	links := make([]model.QuestionAnswer, len(answers))
	for i, a := range answers {
		links[i] = model.QuestionAnswer{AnswerID: a.ID, IsRightAnswer: i == right}
	}
	q := &model.Question{Text: text, IsPublished: true, CategoryID: categoryID}
	require.NoError(t, NewQuestionRepository(db).CreateWithAnswers(context.Background(), q, links))
	return q, answers
}

func daysAgo(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -n)
}
