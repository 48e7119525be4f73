package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You classify messages sent to an employee leave assistant.
Intents: CancelLeave, CheckBalance, RequestLeave, None.
Entity categories: LeaveType (one of "Casual Leave", "Earned Leave", "Sick Leave"), Day (the requested date expression, verbatim).
Reply with ONLY a JSON object of the form:
{"intents":[{"intent":"RequestLeave","score":0.9}],"entities":[{"category":"LeaveType","text":"Sick Leave"}]}
List every intent with a score between 0 and 1, highest first. Omit entities that are not present.`

// OpenAIConfig configures the LLM-backed recognizer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// OpenAI classifies utterances with a chat completion model that answers
// in the same shape a CLU deployment would.
type OpenAI struct {
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAI creates an LLM recognizer. It is unconfigured without an API key.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAI{cfg: cfg, client: openai.NewClientWithConfig(oc)}
}

func (o *OpenAI) Configured() bool {
	return o.cfg.APIKey != ""
}

type llmPrediction struct {
	Intents []struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"intents"`
	Entities []struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	} `json:"entities"`
}

// Classify asks the model for an intent ranking and entities.
func (o *OpenAI) Classify(ctx context.Context, text string) (*Utterance, error) {
	if !o.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classifier completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("classifier completion: no choices")
	}

	var pred llmPrediction
	if err := sonic.UnmarshalString(extractJSONObject(resp.Choices[0].Message.Content), &pred); err != nil {
		return nil, fmt.Errorf("decode classifier completion: %w", err)
	}

	u := &Utterance{Text: text}
	for _, in := range pred.Intents {
		u.Intents = append(u.Intents, IntentScore{Intent: NormalizeIntent(in.Intent), Score: in.Score})
	}
	for _, en := range pred.Entities {
		if en.Text == "" {
			continue
		}
		u.Entities = append(u.Entities, Entity{Category: en.Category, Text: en.Text})
	}
	return u, nil
}

// extractJSONObject trims any prose around the outermost JSON object.
func extractJSONObject(raw string) string {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first >= 0 && last > first {
		return raw[first : last+1]
	}
	return raw
}
