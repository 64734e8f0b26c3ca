package models

import (
	"encoding/json"
	"testing"
)

func TestAnswerJSONVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind QuestionType
	}{
		{"choice", `{"type":"multiple_choice","option_ids":[2,1]}`, QuestionMultipleChoice},
		{"choice empty", `{"type":"multiple_choice"}`, QuestionMultipleChoice},
		{"text", `{"type":"free_text","text":" Paris "}`, QuestionFreeText},
		{"empty text", `{"type":"free_text","text":""}`, QuestionFreeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Answer
			if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if a.Kind() != tt.kind {
				t.Fatalf("kind = %q, want %q", a.Kind(), tt.kind)
			}
		})
	}
}

func TestAnswerJSONRejectsMixedPayloads(t *testing.T) {
	bad := []string{
		`{"type":"multiple_choice","text":"x"}`,
		`{"type":"free_text","option_ids":[1]}`,
		`{"type":"free_text"}`,
		`{"type":"essay","text":"x"}`,
	}
	for _, in := range bad {
		var a Answer
		if err := json.Unmarshal([]byte(in), &a); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestAnswerScanValue(t *testing.T) {
	orig := NewChoiceAnswer(3, 1)
	v, err := orig.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var got Answer
	if err := got.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	c, ok := got.Choice()
	if !ok || len(c.OptionIDs) != 2 || c.OptionIDs[0] != 3 {
		t.Fatalf("unexpected payload %+v", got.Payload)
	}

	if _, err := (Answer{}).Value(); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestSessionHelpers(t *testing.T) {
	s := Session{QuestionCount: 3, CurrentIndex: 1}
	if s.IsLastQuestion() {
		t.Fatal("index 1 of 3 is not last")
	}
	s.CurrentIndex = 2
	if !s.IsLastQuestion() {
		t.Fatal("index 2 of 3 is last")
	}

	if _, ok := s.WindowDeadline(); ok {
		t.Fatal("no window configured")
	}

	if StatusFor(StatePaused) != StatusLive || StatusFor(StateIdle) != StatusLobby || StatusFor(StateEnded) != StatusEnded {
		t.Fatal("unexpected derived status")
	}

	settings := Settings{SettingMaxParticipants: float64(30), SettingAllowAnonymous: true}
	if settings.MaxParticipants(10) != 30 || !settings.AllowAnonymous() {
		t.Fatalf("unexpected settings view")
	}
	if (Settings{}).MaxParticipants(10) != 10 {
		t.Fatal("expected fallback")
	}
}
