package model

import "gorm.io/gorm"

const AnswersPerQuestion = 4

// swagger:model Answer
type Answer struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Text string `gorm:"size:255;uniqueIndex;not null" json:"text"`
}

// swagger:model Question
type Question struct {
	ID          uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Text        string           `gorm:"size:512;uniqueIndex;not null" json:"text"`
	IsPublished bool             `gorm:"not null;index" json:"isPublished"`
	CategoryID  *uint            `gorm:"index" json:"categoryId"`
	Category    *TestCategory    `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
	Answers     []QuestionAnswer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// QuestionAnswer 关联题目与答案。
//
// 正确答案行的 RightMarker 为 true，其余为 NULL，
// (question_id, right_marker) 唯一索引保证每题最多一个正确答案
type QuestionAnswer struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	QuestionID    uint   `gorm:"not null;uniqueIndex:idx_question_answer;uniqueIndex:idx_question_one_right" json:"questionId"`
	AnswerID      uint   `gorm:"not null;uniqueIndex:idx_question_answer" json:"answerId"`
	Answer        Answer `gorm:"foreignKey:AnswerID;constraint:OnDelete:RESTRICT" json:"answer"`
	IsRightAnswer bool   `gorm:"not null" json:"isRightAnswer"`
	RightMarker   *bool  `gorm:"uniqueIndex:idx_question_one_right" json:"-"`
}

func (qa *QuestionAnswer) BeforeSave(tx *gorm.DB) (err error) {
	if qa.IsRightAnswer {
		marker := true
		qa.RightMarker = &marker
	} else {
		qa.RightMarker = nil
	}
	return
}
