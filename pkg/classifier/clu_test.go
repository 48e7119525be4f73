package classifier

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amann12/ManageLeave/pkg/events"
)

const predictionBody = `{
  "kind": "ConversationResult",
  "result": {
    "query": "i want sick leave tomorow",
    "prediction": {
      "topIntent": "RequestLeave",
      "projectKind": "Conversation",
      "intents": [
        {"category": "CancelLeave", "confidenceScore": 0.3},
        {"category": "RequestLeave", "confidenceScore": 0.9},
        {"category": "CheckBalance", "confidenceScore": 0.9}
      ],
      "entities": [
        {"category": "LeaveType", "text": "sick leave", "offset": 7, "length": 10, "confidenceScore": 1},
        {"category": "Day", "text": "tomorow", "offset": 18, "length": 7, "confidenceScore": 1}
      ]
    }
  }
}`

func testCLUConfig(endpoint string) CLUConfig {
	return CLUConfig{
		Endpoint:       endpoint,
		APIKey:         "secret-key",
		ProjectName:    "LeaveProject",
		DeploymentName: "production",
		Timeout:        2 * time.Second,
	}
}

func TestCLUClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/language/:analyze-conversations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != defaultCLUAPIVersion {
			t.Errorf("api-version = %q", got)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "secret-key" {
			t.Errorf("subscription key = %q", got)
		}

		var req cluRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Kind != "Conversation" {
			t.Errorf("kind = %q", req.Kind)
		}
		if req.AnalysisInput.ConversationItem.Text != "i want sick leave tomorrow" {
			t.Errorf("text = %q", req.AnalysisInput.ConversationItem.Text)
		}
		if req.Parameters.ProjectName != "LeaveProject" || req.Parameters.DeploymentName != "production" {
			t.Errorf("parameters = %+v", req.Parameters)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(predictionBody))
	}))
	defer srv.Close()

	pub := events.NewPublisher(nil, "test", "")
	ch := pub.Subscribe("clu", 4)
	defer pub.Unsubscribe("clu")

	clu := NewCLU(testCLUConfig(srv.URL+"/"), pub)
	if !clu.Configured() {
		t.Fatal("expected configured recognizer")
	}

	ctx := events.WithConversationID(t.Context(), "conv-9")
	u, err := clu.Classify(ctx, "i want sick leave tomorrow")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	top, score := u.TopIntent()
	if top != RequestLeave || score != 0.9 {
		t.Errorf("TopIntent() = %q %v, want RequestLeave 0.9", top, score)
	}
	if u.AlteredText != "i want sick leave tomorow" {
		t.Errorf("AlteredText = %q", u.AlteredText)
	}
	if lt, _ := u.LeaveType(); lt != "sick leave" {
		t.Errorf("LeaveType() = %q", lt)
	}
	if d, _ := u.LeaveDate(); d != "tomorow" {
		t.Errorf("LeaveDate() = %q", d)
	}

	select {
	case env := <-ch:
		if env.Type != events.ClassifierResult {
			t.Errorf("event type = %q", env.Type)
		}
		if env.ConversationID != "conv-9" {
			t.Errorf("conversation id = %q", env.ConversationID)
		}
	case <-time.After(time.Second):
		t.Fatal("no classifier event emitted")
	}
}

func TestCLUNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401"}}`))
	}))
	defer srv.Close()

	clu := NewCLU(testCLUConfig(srv.URL), nil)
	if _, err := clu.Classify(t.Context(), "hello"); err == nil {
		t.Fatal("expected error for HTTP 401")
	}
	if clu.BreakerState() != StateClosed {
		t.Errorf("client errors must not trip the breaker, state = %q", clu.BreakerState())
	}
}

func TestCLUNotConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  CLUConfig
	}{
		{name: "empty", cfg: CLUConfig{}},
		{name: "missing key", cfg: CLUConfig{Endpoint: "http://x", ProjectName: "p", DeploymentName: "d"}},
		{name: "missing deployment", cfg: CLUConfig{Endpoint: "http://x", APIKey: "k", ProjectName: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clu := NewCLU(tt.cfg, nil)
			if clu.Configured() {
				t.Fatal("expected unconfigured")
			}
			if _, err := clu.Classify(t.Context(), "hi"); !errors.Is(err, ErrNotConfigured) {
				t.Errorf("err = %v, want ErrNotConfigured", err)
			}
		})
	}
}

func TestCLUBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testCLUConfig(srv.URL)
	cfg.Breaker = BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}
	clu := NewCLU(cfg, nil)

	for range 2 {
		if _, err := clu.Classify(t.Context(), "hi"); err == nil {
			t.Fatal("expected error for HTTP 503")
		}
	}
	if _, err := clu.Classify(t.Context(), "hi"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestUnconfiguredRecognizer(t *testing.T) {
	var r Recognizer = Unconfigured{}
	if r.Configured() {
		t.Error("Unconfigured reports configured")
	}
	if _, err := r.Classify(t.Context(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
}
