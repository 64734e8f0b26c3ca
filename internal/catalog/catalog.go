// Package catalog reads quiz fixtures into the catalog read model.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

type File struct {
	Quizzes []Quiz `yaml:"quizzes"`
}

type Quiz struct {
	Title     string     `yaml:"title"`
	Owner     string     `yaml:"owner,omitempty"`
	Questions []Question `yaml:"questions"`
}

type Question struct {
	Text string              `yaml:"text"`
	Type models.QuestionType `yaml:"type,omitempty"`
	// Expected is the free-text answer; omit it to leave the question ungraded.
	Expected string   `yaml:"expected,omitempty"`
	Options  []Option `yaml:"options,omitempty"`
}

type Option struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct,omitempty"`
}

// Parse decodes and validates a catalog document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Quizzes) == 0 {
		return nil, errors.New("catalog has no quizzes")
	}
	for i := range f.Quizzes {
		if err := f.Quizzes[i].validate(); err != nil {
			return nil, fmt.Errorf("quiz %d (%q): %w", i+1, f.Quizzes[i].Title, err)
		}
	}
	return &f, nil
}

func (q *Quiz) validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return errors.New("title is required")
	}
	if len(q.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	for i := range q.Questions {
		qq := &q.Questions[i]
		if qq.Type == "" {
			qq.Type = models.QuestionMultipleChoice
		}
		if err := qq.validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

func (q *Question) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("text is required")
	}
	switch q.Type {
	case models.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return errors.New("multiple choice needs at least two options")
		}
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		if correct == 0 {
			return errors.New("multiple choice needs a correct option")
		}
		if q.Expected != "" {
			return errors.New("multiple choice cannot carry an expected text")
		}
	case models.QuestionFreeText:
		if len(q.Options) > 0 {
			return errors.New("free text cannot carry options")
		}
	default:
		return fmt.Errorf("unknown type %q", q.Type)
	}
	return nil
}

// Model converts the fixture into a quiz owned by owner unless the fixture
// names its own owner.
func (q Quiz) Model(owner string) models.Quiz {
	if q.Owner != "" {
		owner = q.Owner
	}
	quiz := models.Quiz{OwnerID: owner, Title: strings.TrimSpace(q.Title)}
	for i, qq := range q.Questions {
		mq := models.Question{OrderNum: i + 1, Type: qq.Type, Text: qq.Text}
		if qq.Expected != "" {
			expected := qq.Expected
			mq.ExpectedAnswer = &expected
		}
		for j, o := range qq.Options {
			mq.Options = append(mq.Options, models.Option{Text: o.Text, IsCorrect: o.Correct, OrderNum: j})
		}
		quiz.Questions = append(quiz.Questions, mq)
	}
	return quiz
}

// Import stores every quiz of f and returns them with ids assigned.
func Import(ctx context.Context, st *store.Store, f *File, owner string) ([]models.Quiz, error) {
	out := make([]models.Quiz, 0, len(f.Quizzes))
	for _, q := range f.Quizzes {
		quiz := q.Model(owner)
		if quiz.OwnerID == "" {
			return nil, fmt.Errorf("quiz %q has no owner", quiz.Title)
		}
		if err := st.CreateQuiz(ctx, &quiz); err != nil {
			return nil, fmt.Errorf("store quiz %q: %w", quiz.Title, err)
		}
		out = append(out, quiz)
	}
	return out, nil
}

// Export renders stored quizzes back into catalog form.
func Export(w io.Writer, quizzes []models.Quiz) error {
	f := File{Quizzes: make([]Quiz, 0, len(quizzes))}
	for _, mq := range quizzes {
		q := Quiz{Title: mq.Title, Owner: mq.OwnerID}
		for _, qq := range mq.Questions {
			fq := Question{Text: qq.Text, Type: qq.Type}
			if qq.ExpectedAnswer != nil {
				fq.Expected = *qq.ExpectedAnswer
			}
			for _, o := range qq.Options {
				fq.Options = append(fq.Options, Option{Text: o.Text, Correct: o.IsCorrect})
			}
			q.Questions = append(q.Questions, fq)
		}
		f.Quizzes = append(f.Quizzes, q)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}
