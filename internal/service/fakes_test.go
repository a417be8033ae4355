package service

import (
	"context"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeUsers struct {
	clock  *clock
	nextID uint
	users  map[uint]*model.User
}

func newFakeUsers(c *clock) *fakeUsers {
	return &fakeUsers{clock: c, users: make(map[uint]*model.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	user.ID = f.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = f.clock.Now()
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username })
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uint, hash string) error {
	if u, ok := f.users[id]; ok {
		u.Password = hash
	}
	return nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeUsers) SetActive(ctx context.Context, id uint, active bool) error {
	if u, ok := f.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uint) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) DeleteExpiredInactive(ctx context.Context, joinedBefore time.Time) (int64, error) {
	var n int64
	for id, u := range f.users {
		if !u.IsActive && u.CreatedAt.Before(joinedBefore) && u.LastLogin == nil {
			delete(f.users, id)
			n++
		}
	}
	return n, nil
}

// add stores a user as-is, bypassing the duplicate checks.
func (f *fakeUsers) add(u model.User) *model.User {
	f.nextID++
	u.ID = f.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = f.clock.Now()
	}
	f.users[u.ID] = &u
	return &u
}

type fakeTokens struct {
	clock  *clock
	users  *fakeUsers
	tokens map[string]*model.ActivationToken
}

func newFakeTokens(c *clock, users *fakeUsers) *fakeTokens {
	return &fakeTokens{clock: c, users: users, tokens: make(map[string]*model.ActivationToken)}
}

func (f *fakeTokens) Issue(ctx context.Context, userID uint) (*model.ActivationToken, error) {
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	t := &model.ActivationToken{Token: uuid.New().String(), UserID: userID, CreatedAt: f.clock.Now()}
	f.tokens[t.Token] = t
	return t, nil
}

// FindWithUser treats tokens of deleted users as gone, like the cascade does.
func (f *fakeTokens) FindWithUser(ctx context.Context, token string) (*model.ActivationToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u, ok := f.users.users[t.UserID]
	if !ok {
		delete(f.tokens, token)
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.User = *u
	return &cp, nil
}

func (f *fakeTokens) Consume(ctx context.Context, token string, userID uint) error {
	t, ok := f.tokens[token]
	if !ok || t.UserID != userID {
		return util.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return f.users.SetActive(ctx, userID, true)
}

type fakeCategories struct {
	categories map[uint]*model.TestCategory
	nextID     uint
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{categories: make(map[uint]*model.TestCategory)}
}

func (f *fakeCategories) ListPublished(ctx context.Context) ([]model.TestCategory, error) {
	var out []model.TestCategory
	for _, c := range f.categories {
		if c.IsPublished {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCategories) FindPublished(ctx context.Context, id uint) (*model.TestCategory, error) {
	c, ok := f.categories[id]
	if !ok || !c.IsPublished {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) Upsert(ctx context.Context, name string, published bool) (*model.TestCategory, error) {
	for _, c := range f.categories {
		if c.Name == name {
			c.IsPublished = published
			cp := *c
			return &cp, nil
		}
	}
	f.nextID++
	c := &model.TestCategory{ID: f.nextID, Name: name, IsPublished: published}
	f.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

type fakeQuestions struct {
	questions  []model.Question
	nextID     uint
	nextLinkID uint
}

func (f *fakeQuestions) EligibleIDs(ctx context.Context, categoryID uint) ([]uint, error) {
	var ids []uint
	for _, q := range f.questions {
		if q.IsPublished && q.CategoryID != nil && *q.CategoryID == categoryID {
			ids = append(ids, q.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeQuestions) FindWithAnswers(ctx context.Context, ids []uint) ([]model.Question, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	// reverse order, callers must not rely on it
	for i := len(f.questions) - 1; i >= 0; i-- {
		if want[f.questions[i].ID] {
			out = append(out, f.questions[i])
		}
	}
	return out, nil
}

func (f *fakeQuestions) AnswerRows(ctx context.Context, questionIDs []uint) ([]model.QuestionAnswer, error) {
	want := make(map[uint]bool, len(questionIDs))
	for _, id := range questionIDs {
		want[id] = true
	}
	var rows []model.QuestionAnswer
	for _, q := range f.questions {
		if want[q.ID] {
			rows = append(rows, q.Answers...)
		}
	}
	return rows, nil
}

func (f *fakeQuestions) ExistsByText(ctx context.Context, text string) (bool, error) {
	for _, q := range f.questions {
		if q.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuestions) CreateWithAnswers(ctx context.Context, question *model.Question, links []model.QuestionAnswer) error {
	f.nextID++
	question.ID = f.nextID
	for i := range links {
		f.nextLinkID++
		links[i].ID = f.nextLinkID
		links[i].QuestionID = question.ID
	}
	question.Answers = links
	f.questions = append(f.questions, *question)
	return nil
}

// add appends a question with four answers; the second one is correct.
// Answer ids are qid*10+1 .. qid*10+4.
func (f *fakeQuestions) add(categoryID uint, published bool, text string) model.Question {
	f.nextID++
	q := model.Question{ID: f.nextID, Text: text, IsPublished: published, CategoryID: &categoryID}
	for i := uint(1); i <= model.AnswersPerQuestion; i++ {
		aid := q.ID*10 + i
		q.Answers = append(q.Answers, model.QuestionAnswer{
			QuestionID:    q.ID,
			AnswerID:      aid,
			Answer:        model.Answer{ID: aid, Text: text + " answer " + string(rune('A'+i-1))},
			IsRightAnswer: i == 2,
		})
	}
	f.questions = append(f.questions, q)
	return q
}

func rightAnswer(q model.Question) uint {
	return q.ID*10 + 2
}

type fakeAnswers struct {
	answers map[string]*model.Answer
	nextID  uint
}

func newFakeAnswers() *fakeAnswers {
	return &fakeAnswers{answers: make(map[string]*model.Answer)}
}

func (f *fakeAnswers) FirstOrCreate(ctx context.Context, text string) (*model.Answer, error) {
	if a, ok := f.answers[text]; ok {
		return a, nil
	}
	f.nextID++
	a := &model.Answer{ID: f.nextID, Text: text}
	f.answers[text] = a
	return a, nil
}

type fakeAttempts struct {
	records   []model.AttemptRecord
	bulkCalls int
}

func (f *fakeAttempts) AttemptedQuestionIDs(ctx context.Context, userID uint, questionIDs []uint) ([]uint, error) {
	want := make(map[uint]bool, len(questionIDs))
	for _, id := range questionIDs {
		want[id] = true
	}
	seen := make(map[uint]bool)
	var ids []uint
	for _, r := range f.records {
		if r.UserID == userID && want[r.QuestionID] && !seen[r.QuestionID] {
			seen[r.QuestionID] = true
			ids = append(ids, r.QuestionID)
		}
	}
	return ids, nil
}

func (f *fakeAttempts) BulkCreate(ctx context.Context, records []model.AttemptRecord) error {
	if len(records) == 0 {
		return nil
	}
	f.bulkCalls++
	for _, r := range records {
		dup := false
		for _, existing := range f.records {
			if existing.UserID == r.UserID && existing.QuestionID == r.QuestionID {
				dup = true
				break
			}
		}
		if !dup {
			f.records = append(f.records, r)
		}
	}
	return nil
}

func (f *fakeAttempts) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	for _, r := range f.records {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeSessions struct {
	revoked map[string]time.Time
	cutoffs map[uint]time.Time
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{revoked: make(map[string]time.Time), cutoffs: make(map[uint]time.Time)}
}

func (f *fakeSessions) RevokeAll(ctx context.Context, userID uint, at time.Time, ttl time.Duration) error {
	f.cutoffs[userID] = at
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, jti string, until time.Time) error {
	f.revoked[jti] = until
	return nil
}

func (f *fakeSessions) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}

type fakeResets struct {
	tokens map[string]uint
}

func newFakeResets() *fakeResets {
	return &fakeResets{tokens: make(map[string]uint)}
}

func (f *fakeResets) Create(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeResets) Consume(ctx context.Context, token string) (uint, error) {
	id, ok := f.tokens[token]
	if !ok {
		return 0, util.ErrResetTokenInvalid
	}
	delete(f.tokens, token)
	return id, nil
}

type sentMail struct {
	Subject   string
	Body      string
	Recipient string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, subject, body, recipient string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{Subject: subject, Body: body, Recipient: recipient})
	return nil
}

var (
	_ UserStore            = (*fakeUsers)(nil)
	_ ActivationTokenStore = (*fakeTokens)(nil)
	_ CategoryStore        = (*fakeCategories)(nil)
	_ QuestionStore        = (*fakeQuestions)(nil)
	_ AnswerStore          = (*fakeAnswers)(nil)
	_ AttemptStore         = (*fakeAttempts)(nil)
	_ SessionStore         = (*fakeSessions)(nil)
	_ ResetTokenStore      = (*fakeResets)(nil)
)
