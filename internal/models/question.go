package models

type Question struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	QuizID         uint         `gorm:"not null;index" json:"quiz_id"`
	OrderNum       int          `gorm:"not null" json:"order_num"`
	Type           QuestionType `gorm:"size:20;not null;default:'multiple_choice'" json:"type"`
	Text           string       `gorm:"type:text;not null" json:"text"`
	ExpectedAnswer *string      `gorm:"type:text" json:"expected_answer,omitempty"`
	Options        []Option     `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

// CorrectOptionIDs lists the ids of options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func (q *Question) HasOption(id uint) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
