package model

import "time"

// AttemptRecord 答题记录：用户答对了该题
type AttemptRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_attempt_user_question" json:"userId"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_attempt_user_question;index" json:"questionId"`
	Question   Question  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	AnswerID   uint      `gorm:"not null" json:"answerId"`
	Answer     Answer    `gorm:"foreignKey:AnswerID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}
