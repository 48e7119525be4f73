package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

// Classifier backends.
const (
	ClassifierCLU    = "clu"
	ClassifierOpenAI = "openai"
	ClassifierNone   = "none"
)

// Conversation state backends.
const (
	StateMemory   = "memory"
	StateDatabase = "database"
)

// LeaveBotConfig holds configuration for the leave assistant service.
type LeaveBotConfig struct {
	config.ConfigurationDefault

	// Intent classification
	ClassifierBackend    string `envDefault:"clu"                env:"CLASSIFIER_BACKEND"`
	CLUEndpoint          string `envDefault:""                   env:"CLU_ENDPOINT"`
	CLUAPIKey            string `envDefault:""                   env:"CLU_API_KEY"`
	CLUProjectName       string `envDefault:""                   env:"CLU_PROJECT_NAME"`
	CLUDeploymentName    string `envDefault:""                   env:"CLU_DEPLOYMENT_NAME"`
	CLUAPIVersion        string `envDefault:"2022-10-01-preview" env:"CLU_API_VERSION"`
	ClassifierTimeoutSec int    `envDefault:"10"                 env:"CLASSIFIER_TIMEOUT_SEC"`
	OpenAIAPIKey         string `envDefault:""                   env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envDefault:""                   env:"OPENAI_BASE_URL"`
	OpenAIModel          string `envDefault:"gpt-4o-mini"        env:"OPENAI_MODEL"`
	CBFailThreshold      int    `envDefault:"5"                  env:"CB_FAILURE_THRESHOLD"`
	CBResetTimeoutSec    int    `envDefault:"60"                 env:"CB_RESET_TIMEOUT_SEC"`

	// Registry
	UserIDMaxAttempts int  `envDefault:"10"   env:"USER_ID_MAX_ATTEMPTS"`
	MigrateOnStart    bool `envDefault:"true" env:"MIGRATE_ON_START"`

	// Dialog texts
	CatalogFile string `envDefault:"" env:"CATALOG_FILE"`

	// Conversation state
	StateBackend       string `envDefault:"memory" env:"STATE_BACKEND"`
	ConversationTTLMin int    `envDefault:"30"     env:"CONVERSATION_TTL_MIN"`

	// Require a bearer token on every RPC.
	RequireAuth bool `envDefault:"false" env:"REQUIRE_AUTH"`
}

// ClassifierTimeout returns the per-call classifier timeout.
func (c *LeaveBotConfig) ClassifierTimeout() time.Duration {
	if c.ClassifierTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ClassifierTimeoutSec) * time.Second
}

// ConversationTTL returns how long an idle conversation is kept in memory.
func (c *LeaveBotConfig) ConversationTTL() time.Duration {
	if c.ConversationTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ConversationTTLMin) * time.Minute
}

// ChatClientConfig holds configuration for the interactive chat client.
type ChatClientConfig struct {
	ServerURL string `envDefault:"http://localhost:8080" env:"LEAVEBOT_URL"`
}
