package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amann12/ManageLeave/pkg/events"
)

const (
	defaultCLUAPIVersion = "2022-10-01-preview"
	maxResponseBytes     = 1 << 20
)

// CLUConfig describes a conversational language understanding deployment.
type CLUConfig struct {
	Endpoint       string
	APIKey         string
	ProjectName    string
	DeploymentName string
	APIVersion     string
	Timeout        time.Duration
	Breaker        BreakerConfig
}

// CLU calls a conversational language understanding endpoint
// (analyze-conversations) and converts its prediction into an Utterance.
type CLU struct {
	cfg        CLUConfig
	httpClient *http.Client
	breaker    *Breaker
	publisher  *events.Publisher
}

// NewCLU creates a CLU recognizer. It reports itself unconfigured when any
// of endpoint, key, project or deployment is missing.
func NewCLU(cfg CLUConfig, publisher *events.Publisher) *CLU {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultCLUAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CLU{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		breaker:   NewBreaker(cfg.Breaker),
		publisher: publisher,
	}
}

// Configured reports whether all connection settings are present.
func (c *CLU) Configured() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != "" && c.cfg.ProjectName != "" && c.cfg.DeploymentName != ""
}

type cluRequest struct {
	Kind          string           `json:"kind"`
	AnalysisInput cluAnalysisInput `json:"analysisInput"`
	Parameters    cluParameters    `json:"parameters"`
}

type cluAnalysisInput struct {
	ConversationItem cluConversationItem `json:"conversationItem"`
}

type cluConversationItem struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

type cluParameters struct {
	ProjectName     string `json:"projectName"`
	DeploymentName  string `json:"deploymentName"`
	StringIndexType string `json:"stringIndexType"`
}

type cluResponse struct {
	Kind   string `json:"kind"`
	Result struct {
		Query      string `json:"query"`
		Prediction struct {
			TopIntent string `json:"topIntent"`
			Intents   []struct {
				Category        string  `json:"category"`
				ConfidenceScore float64 `json:"confidenceScore"`
			} `json:"intents"`
			Entities []struct {
				Category        string  `json:"category"`
				Text            string  `json:"text"`
				Offset          int     `json:"offset"`
				Length          int     `json:"length"`
				ConfidenceScore float64 `json:"confidenceScore"`
			} `json:"entities"`
		} `json:"prediction"`
	} `json:"result"`
}

// Classify sends text to the deployment and returns the typed result.
func (c *CLU) Classify(ctx context.Context, text string) (*Utterance, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !c.breaker.AllowRequest() {
		return nil, ErrCircuitOpen
	}

	body, err := json.Marshal(cluRequest{
		Kind: "Conversation",
		AnalysisInput: cluAnalysisInput{ConversationItem: cluConversationItem{
			ID:            "1",
			ParticipantID: "1",
			Text:          text,
		}},
		Parameters: cluParameters{
			ProjectName:     c.cfg.ProjectName,
			DeploymentName:  c.cfg.DeploymentName,
			StringIndexType: "TextElement_V8",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classifier request: %w", err)
	}

	endpoint := c.analyzeURL()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create classifier request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure()
		c.emitError(ctx, endpoint, err.Error())
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	io.Copy(io.Discard, resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("read classifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.breaker.RecordFailure()
		}
		errMsg := fmt.Sprintf("classifier returned HTTP %d: %s", resp.StatusCode, string(respBody))
		c.emitError(ctx, endpoint, errMsg)
		return nil, fmt.Errorf("%s", errMsg)
	}
	c.breaker.RecordSuccess()

	var cr cluResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("unmarshal classifier response: %w", err)
	}

	u := &Utterance{Text: text}
	if cr.Result.Query != "" && cr.Result.Query != text {
		u.AlteredText = cr.Result.Query
	}
	for _, in := range cr.Result.Prediction.Intents {
		u.Intents = append(u.Intents, IntentScore{Intent: NormalizeIntent(in.Category), Score: in.ConfidenceScore})
	}
	for _, en := range cr.Result.Prediction.Entities {
		u.Entities = append(u.Entities, Entity{
			Category: en.Category,
			Text:     en.Text,
			Offset:   en.Offset,
			Length:   en.Length,
			Score:    en.ConfidenceScore,
		})
	}

	if c.publisher != nil {
		top, score := u.TopIntent()
		_ = c.publisher.Emit(ctx, events.ClassifierResult, events.ConversationIDFrom(ctx), &events.ClassifierResultData{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			TopIntent:  string(top),
			Score:      score,
		})
	}

	return u, nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *CLU) BreakerState() string {
	return c.breaker.State()
}

func (c *CLU) analyzeURL() string {
	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/language/:analyze-conversations?" + q.Encode()
}

func (c *CLU) emitError(ctx context.Context, endpoint, msg string) {
	if c.publisher == nil {
		return
	}
	_ = c.publisher.Emit(ctx, events.ClassifierError, events.ConversationIDFrom(ctx), &events.ClassifierErrorData{
		Endpoint: endpoint,
		Error:    msg,
	})
}
