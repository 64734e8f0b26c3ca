package services

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
)

// Grade checks the answer shape against the question and computes correctness.
func Grade(q models.Question, answer models.Answer) (bool, error) {
	switch q.Type {
	case models.QuestionMultipleChoice:
		choice, ok := answer.Choice()
		if !ok {
			return false, invalidAnswer("multiple choice question expects option ids")
		}
		if len(choice.OptionIDs) == 0 {
			return false, invalidAnswer("no option selected")
		}
		for _, id := range choice.OptionIDs {
			if !q.HasOption(id) {
				return false, invalidAnswer(fmt.Sprintf("option %d does not belong to question %d", id, q.ID))
			}
		}
		return sameSet(choice.OptionIDs, q.CorrectOptionIDs()), nil

	case models.QuestionFreeText:
		text, ok := answer.Text()
		if !ok {
			return false, invalidAnswer("free text question expects text")
		}
		if q.ExpectedAnswer == nil {
			return false, nil
		}
		return normalizeText(text.Text) == normalizeText(*q.ExpectedAnswer), nil
	}
	return false, invalidAnswer(fmt.Sprintf("unsupported question type %q", q.Type))
}

// sameSet compares ids as sets: order and duplicates do not matter.
func sameSet(got, want []uint) bool {
	g, w := lo.Uniq(got), lo.Uniq(want)
	if len(g) != len(w) {
		return false
	}
	return len(lo.Without(g, w...)) == 0
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func invalidAnswer(msg string) error {
	return apperr.New(apperr.CodeInvalidAnswer, msg)
}
