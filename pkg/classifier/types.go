package classifier

import "strings"

// Intent is a leave-related intent name reported by the classifier.
type Intent string

const (
	CancelLeave  Intent = "CancelLeave"
	CheckBalance Intent = "CheckBalance"
	RequestLeave Intent = "RequestLeave"
	None         Intent = "None"
)

// Entity categories the dialogs read.
const (
	CategoryLeaveType = "LeaveType"
	CategoryDay       = "Day"
)

// NormalizeIntent maps a service category such as "Request Leave" onto an
// Intent. Unknown names are kept as-is without spaces.
func NormalizeIntent(name string) Intent {
	compact := strings.ReplaceAll(strings.TrimSpace(name), " ", "")
	for _, known := range []Intent{CancelLeave, CheckBalance, RequestLeave, None} {
		if strings.EqualFold(compact, string(known)) {
			return known
		}
	}
	if compact == "" {
		return None
	}
	return Intent(compact)
}

// IntentScore is one entry of the classifier's intent ranking.
type IntentScore struct {
	Intent Intent  `json:"intent"`
	Score  float64 `json:"score"`
}

// Entity is a typed span extracted from the utterance.
type Entity struct {
	Category string  `json:"category"`
	Text     string  `json:"text"`
	Offset   int     `json:"offset,omitempty"`
	Length   int     `json:"length,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Utterance is the typed result of classifying one user message. Intents
// and Entities keep the order the service returned them in.
type Utterance struct {
	Text        string        `json:"text"`
	AlteredText string        `json:"altered_text,omitempty"`
	Intents     []IntentScore `json:"intents"`
	Entities    []Entity      `json:"entities"`
}

// TopIntent returns the highest scoring intent. Scores are compared with
// a strict greater-than while walking Intents in service order, so an
// exact tie goes to the entry listed first. With no positive score the
// result is None.
func (u *Utterance) TopIntent() (Intent, float64) {
	top, max := None, 0.0
	for _, is := range u.Intents {
		if is.Score > max {
			top, max = is.Intent, is.Score
		}
	}
	return top, max
}

// Scores returns the intent ranking as a map.
func (u *Utterance) Scores() map[Intent]float64 {
	m := make(map[Intent]float64, len(u.Intents))
	for _, is := range u.Intents {
		if _, seen := m[is.Intent]; !seen {
			m[is.Intent] = is.Score
		}
	}
	return m
}

// LeaveType returns the first extracted leave type.
func (u *Utterance) LeaveType() (string, bool) {
	return u.firstEntity(CategoryLeaveType)
}

// LeaveDate returns the first extracted day expression.
func (u *Utterance) LeaveDate() (string, bool) {
	return u.firstEntity(CategoryDay)
}

func (u *Utterance) firstEntity(category string) (string, bool) {
	for _, e := range u.Entities {
		if e.Category == category {
			return e.Text, true
		}
	}
	return "", false
}
