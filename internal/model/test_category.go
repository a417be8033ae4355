package model

// swagger:model TestCategory
type TestCategory struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:128;uniqueIndex;not null" json:"name"`
	IsPublished bool   `gorm:"not null" json:"isPublished"`
}

func (TestCategory) TableName() string {
	return "test_categories"
}
