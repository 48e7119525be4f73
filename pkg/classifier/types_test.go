package classifier

import "testing"

func TestTopIntent(t *testing.T) {
	tests := []struct {
		name      string
		intents   []IntentScore
		want      Intent
		wantScore float64
	}{
		{
			name: "highest wins",
			intents: []IntentScore{
				{Intent: CancelLeave, Score: 0.2},
				{Intent: RequestLeave, Score: 0.8},
				{Intent: CheckBalance, Score: 0.1},
			},
			want:      RequestLeave,
			wantScore: 0.8,
		},
		{
			name: "tie goes to the first listed",
			intents: []IntentScore{
				{Intent: CancelLeave, Score: 0.3},
				{Intent: RequestLeave, Score: 0.9},
				{Intent: CheckBalance, Score: 0.9},
			},
			want:      RequestLeave,
			wantScore: 0.9,
		},
		{
			name:    "empty ranking",
			intents: nil,
			want:    None,
		},
		{
			name:    "zero scores",
			intents: []IntentScore{{Intent: CancelLeave, Score: 0}},
			want:    None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &Utterance{Intents: tt.intents}
			got, score := u.TopIntent()
			if got != tt.want {
				t.Errorf("TopIntent() = %q, want %q", got, tt.want)
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestEntitiesFirstMatch(t *testing.T) {
	u := &Utterance{Entities: []Entity{
		{Category: CategoryDay, Text: "tomorrow"},
		{Category: CategoryLeaveType, Text: "Sick Leave"},
		{Category: CategoryLeaveType, Text: "Casual Leave"},
	}}

	if lt, ok := u.LeaveType(); !ok || lt != "Sick Leave" {
		t.Errorf("LeaveType() = %q, %v", lt, ok)
	}
	if d, ok := u.LeaveDate(); !ok || d != "tomorrow" {
		t.Errorf("LeaveDate() = %q, %v", d, ok)
	}

	empty := &Utterance{}
	if _, ok := empty.LeaveType(); ok {
		t.Error("LeaveType() found an entity in an empty utterance")
	}
}

func TestNormalizeIntent(t *testing.T) {
	tests := map[string]Intent{
		"RequestLeave":   RequestLeave,
		"Request Leave":  RequestLeave,
		"cancelleave":    CancelLeave,
		" Check Balance": CheckBalance,
		"":               None,
		"Greeting Chat":  Intent("GreetingChat"),
	}
	for in, want := range tests {
		if got := NormalizeIntent(in); got != want {
			t.Errorf("NormalizeIntent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScoresKeepsFirstEntry(t *testing.T) {
	u := &Utterance{Intents: []IntentScore{
		{Intent: RequestLeave, Score: 0.7},
		{Intent: RequestLeave, Score: 0.1},
	}}
	if got := u.Scores()[RequestLeave]; got != 0.7 {
		t.Errorf("Scores()[RequestLeave] = %v, want 0.7", got)
	}
}
