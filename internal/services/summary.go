package services

import (
	"context"

	"github.com/samber/lo"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

type Summary struct {
	SessionID            uint                 `json:"session_id"`
	State                models.SessionState  `json:"state"`
	TotalParticipants    int                  `json:"total_participants"`
	ParticipantsAnswered int                  `json:"participants_answered"`
	TotalAttempts        int                  `json:"total_attempts"`
	CorrectAttempts      int                  `json:"correct_attempts"`
	CorrectRate          float64              `json:"correct_rate"`
	Questions            []QuestionSummary    `json:"questions"`
	Participants         []ParticipantSummary `json:"participants"`
}

type QuestionSummary struct {
	Index        int                 `json:"index"`
	QuestionID   uint                `json:"question_id"`
	Type         models.QuestionType `json:"type"`
	Text         string              `json:"text"`
	Attempts     int                 `json:"attempts"`
	Correct      int                 `json:"correct"`
	CorrectRate  float64             `json:"correct_rate"`
	Distribution []OptionCount       `json:"distribution,omitempty"`
}

type OptionCount struct {
	OptionID  uint   `json:"option_id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Count     int    `json:"count"`
}

type ParticipantSummary struct {
	ParticipantID uint                     `json:"participant_id"`
	DisplayName   string                   `json:"display_name"`
	Status        models.ParticipantStatus `json:"status"`
	Answered      int                      `json:"answered"`
	Correct       int                      `json:"correct"`
	Score         float64                  `json:"score"`
}

// SummaryService aggregates a session's attempts. It never writes.
type SummaryService struct {
	store *store.Store
}

func NewSummaryService(st *store.Store) *SummaryService {
	return &SummaryService{store: st}
}

func (s *SummaryService) Build(ctx context.Context, sessionID uint) (*Summary, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	participants, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list participants", err)
	}
	attempts, err := s.store.ListAttempts(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list attempts", err)
	}
	questions, err := s.store.ListQuestions(ctx, session.QuizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list questions", err)
	}

	isCorrect := func(a models.Attempt, _ int) bool { return a.IsCorrect }
	byQuestion := lo.GroupBy(attempts, func(a models.Attempt) int { return a.QuestionIndex })
	byParticipant := lo.GroupBy(attempts, func(a models.Attempt) uint { return a.ParticipantID })

	summary := &Summary{
		SessionID:            sessionID,
		State:                session.State,
		TotalParticipants:    len(participants),
		ParticipantsAnswered: len(byParticipant),
		TotalAttempts:        len(attempts),
		CorrectAttempts:      lo.CountBy(attempts, func(a models.Attempt) bool { return a.IsCorrect }),
		Questions:            make([]QuestionSummary, 0, len(questions)),
		Participants:         make([]ParticipantSummary, 0, len(participants)),
	}
	summary.CorrectRate = percent(summary.CorrectAttempts, summary.TotalAttempts)

	for i, q := range questions {
		qa := byQuestion[i]
		qs := QuestionSummary{
			Index:      i,
			QuestionID: q.ID,
			Type:       q.Type,
			Text:       q.Text,
			Attempts:   len(qa),
			Correct:    len(lo.Filter(qa, isCorrect)),
		}
		qs.CorrectRate = percent(qs.Correct, qs.Attempts)
		if q.Type == models.QuestionMultipleChoice {
			qs.Distribution = distribution(q, qa)
		}
		summary.Questions = append(summary.Questions, qs)
	}

	for _, p := range participants {
		pa := byParticipant[p.ID]
		ps := ParticipantSummary{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Status:        p.Status,
			Answered:      len(pa),
			Correct:       len(lo.Filter(pa, isCorrect)),
		}
		ps.Score = percent(ps.Correct, ps.Answered)
		summary.Participants = append(summary.Participants, ps)
	}
	return summary, nil
}

func distribution(q models.Question, attempts []models.Attempt) []OptionCount {
	counts := make(map[uint]int, len(q.Options))
	for _, a := range attempts {
		choice, ok := a.Answer.Choice()
		if !ok {
			continue
		}
		for _, id := range lo.Uniq(choice.OptionIDs) {
			counts[id]++
		}
	}
	return lo.Map(q.Options, func(o models.Option, _ int) OptionCount {
		return OptionCount{OptionID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect, Count: counts[o.ID]}
	})
}

// percent returns part/total*100, or 0 when total is 0.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
