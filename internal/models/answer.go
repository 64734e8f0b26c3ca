package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFreeText       QuestionType = "free_text"
)

func (t QuestionType) Valid() bool {
	return t == QuestionMultipleChoice || t == QuestionFreeText
}

// AnswerPayload is implemented by ChoiceAnswer and TextAnswer only.
type AnswerPayload interface {
	QuestionType() QuestionType
	isAnswerPayload()
}

// ChoiceAnswer is the set of selected option ids of a multiple-choice question.
type ChoiceAnswer struct {
	OptionIDs []uint
}

func (ChoiceAnswer) QuestionType() QuestionType { return QuestionMultipleChoice }
func (ChoiceAnswer) isAnswerPayload()          {}

// TextAnswer is a free-text response.
type TextAnswer struct {
	Text string
}

func (TextAnswer) QuestionType() QuestionType { return QuestionFreeText }
func (TextAnswer) isAnswerPayload()          {}

// Answer wraps one payload variant. It is stored and sent as
// {"type": "...", "option_ids": [...]} or {"type": "...", "text": "..."}.
type Answer struct {
	Payload AnswerPayload
}

func NewChoiceAnswer(optionIDs ...uint) Answer {
	return Answer{Payload: ChoiceAnswer{OptionIDs: optionIDs}}
}

func NewTextAnswer(text string) Answer {
	return Answer{Payload: TextAnswer{Text: text}}
}

// Kind returns the question type the payload answers, or "" when empty.
func (a Answer) Kind() QuestionType {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.QuestionType()
}

func (a Answer) Choice() (ChoiceAnswer, bool) {
	c, ok := a.Payload.(ChoiceAnswer)
	return c, ok
}

func (a Answer) Text() (TextAnswer, bool) {
	t, ok := a.Payload.(TextAnswer)
	return t, ok
}

var ErrEmptyAnswer = errors.New("answer payload is empty")

type answerWire struct {
	Type      QuestionType `json:"type"`
	OptionIDs []uint       `json:"option_ids,omitempty"`
	Text      *string      `json:"text,omitempty"`
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch p := a.Payload.(type) {
	case ChoiceAnswer:
		ids := p.OptionIDs
		if ids == nil {
			ids = []uint{}
		}
		return json.Marshal(struct {
			Type      QuestionType `json:"type"`
			OptionIDs []uint       `json:"option_ids"`
		}{QuestionMultipleChoice, ids})
	case TextAnswer:
		text := p.Text
		return json.Marshal(answerWire{Type: QuestionFreeText, Text: &text})
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unknown answer payload %T", p)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Payload = nil
		return nil
	}
	var w answerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case QuestionMultipleChoice:
		if w.Text != nil {
			return fmt.Errorf("multiple_choice answer must not carry text")
		}
		a.Payload = ChoiceAnswer{OptionIDs: w.OptionIDs}
	case QuestionFreeText:
		if len(w.OptionIDs) > 0 {
			return fmt.Errorf("free_text answer must not carry option ids")
		}
		if w.Text == nil {
			return fmt.Errorf("free_text answer requires text")
		}
		a.Payload = TextAnswer{Text: *w.Text}
	default:
		return fmt.Errorf("unknown answer type %q", w.Type)
	}
	return nil
}

// GormDataType stores the payload as JSON text.
func (Answer) GormDataType() string {
	return "text"
}

func (a Answer) Value() (driver.Value, error) {
	if a.Payload == nil {
		return nil, ErrEmptyAnswer
	}
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Answer) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.Payload = nil
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Answer", src)
	}
}
