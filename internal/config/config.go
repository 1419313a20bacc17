package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Interpreter modes
const (
	InterpreterStub   = "stub"
	InterpreterRemote = "remote"
	InterpreterLLM    = "llm"
)

// DefaultAgentName is the name advertised on the A2A agent card
const DefaultAgentName = "IssueShareAgent"

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort         int
	ServerHost         string
	APIPort            int
	CORSAllowedOrigins []string

	// Agent configuration
	AgentName    string
	AgentVersion string
	AgentURL     string

	// Jira configuration
	JiraBaseURL           string
	JiraUsername          string
	JiraAPIToken          string
	JiraMaxPages          int
	JiraRequestsPerSecond float64
	JiraTimeout           int // in seconds

	// Authentication
	AuthType  string // "jwt", "apikey" or empty
	JWTSecret string
	APIKey    string

	// Interpretation / mail service
	InterpreterMode    string
	AppRunnerBaseURL   string
	AppRunnerAuthToken string
	ForceStub          bool
	InterpreterTimeout int // in seconds

	// Mail configuration
	MailSingleRecipient bool
	MailDefaultSender   string
	MailTimeout         int // in seconds

	// LLM configuration
	LLMProvider    string // "openai", "azure"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     int // in seconds
	LLMTemperature float64

	// Logging
	LogLevel  string
	LogFormat string
}

// init loads environment variables from .env file
func init() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded configuration from %s file", path)
			return
		}
	}
	log.Println("No .env file found or error loading it. Using environment variables or defaults.")
}

// NewConfig creates a new configuration with values from environment variables
func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:         v.GetInt("SERVER_PORT"),
		ServerHost:         v.GetString("SERVER_HOST"),
		APIPort:            v.GetInt("API_PORT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		AgentName:    v.GetString("AGENT_NAME"),
		AgentVersion: v.GetString("AGENT_VERSION"),
		AgentURL:     v.GetString("AGENT_URL"),

		JiraBaseURL:           strings.TrimRight(v.GetString("JIRA_BASE_URL"), "/"),
		JiraUsername:          v.GetString("JIRA_USERNAME"),
		JiraAPIToken:          v.GetString("JIRA_API_TOKEN"),
		JiraMaxPages:          v.GetInt("JIRA_MAX_PAGES"),
		JiraRequestsPerSecond: v.GetFloat64("JIRA_REQUESTS_PER_SECOND"),
		JiraTimeout:           v.GetInt("JIRA_TIMEOUT"),

		AuthType:  v.GetString("AUTH_TYPE"),
		JWTSecret: v.GetString("JWT_SECRET"),
		APIKey:    v.GetString("API_KEY"),

		InterpreterMode:    strings.ToLower(v.GetString("INTERPRETER_MODE")),
		AppRunnerBaseURL:   strings.TrimRight(v.GetString("APP_RUNNER_BASE_URL"), "/"),
		AppRunnerAuthToken: firstNonEmpty(v, "RAG_AUTH_TOKEN", "APP_RUNNER_AUTH_TOKEN", "APP_RUNNER_API_KEY"),
		ForceStub:          v.GetString("USE_RAG_STUB") == "1",
		InterpreterTimeout: v.GetInt("INTERPRETER_TIMEOUT"),

		MailSingleRecipient: v.GetBool("MAIL_SINGLE_RECIPIENT"),
		MailDefaultSender:   v.GetString("MAIL_DEFAULT_SENDER"),
		MailTimeout:         v.GetInt("MAIL_TIMEOUT"),

		LLMProvider:    v.GetString("LLM_PROVIDER"),
		LLMModel:       v.GetString("LLM_MODEL"),
		LLMAPIKey:      v.GetString("LLM_API_KEY"),
		LLMServiceURL:  v.GetString("LLM_SERVICE_URL"),
		LLMMaxTokens:   v.GetInt("LLM_MAX_TOKENS"),
		LLMTimeout:     v.GetInt("LLM_TIMEOUT"),
		LLMTemperature: v.GetFloat64("LLM_TEMPERATURE"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}
	if cfg.AgentURL == "" {
		cfg.AgentURL = fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("API_PORT", 8081)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("AGENT_NAME", DefaultAgentName)
	v.SetDefault("AGENT_VERSION", "1.0.0")

	v.SetDefault("JIRA_BASE_URL", "https://your-jira-instance.atlassian.net")
	v.SetDefault("JIRA_MAX_PAGES", 500)
	v.SetDefault("JIRA_REQUESTS_PER_SECOND", 10)
	v.SetDefault("JIRA_TIMEOUT", 30)

	v.SetDefault("INTERPRETER_MODE", InterpreterStub)
	v.SetDefault("APP_RUNNER_BASE_URL", "https://forgeapps.clovity.com")
	v.SetDefault("INTERPRETER_TIMEOUT", 30)

	v.SetDefault("MAIL_DEFAULT_SENDER", "AI Issue Share")
	v.SetDefault("MAIL_TIMEOUT", 30)

	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "gpt-4")
	v.SetDefault("LLM_MAX_TOKENS", 4000)
	v.SetDefault("LLM_TIMEOUT", 30)
	v.SetDefault("LLM_TEMPERATURE", 0.0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// StubMode reports whether the interpretation and mail services must be
// replaced by their local deterministic stand-ins.
func (c *Config) StubMode() bool {
	return c.ForceStub || c.AppRunnerBaseURL == "" || c.AppRunnerAuthToken == ""
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.InterpreterMode {
	case InterpreterStub, InterpreterRemote, InterpreterLLM:
	default:
		return fmt.Errorf("unsupported INTERPRETER_MODE: %q", c.InterpreterMode)
	}
	switch c.AuthType {
	case "":
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_TYPE=jwt requires JWT_SECRET")
		}
	case "apikey":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_TYPE=apikey requires API_KEY")
		}
	default:
		return fmt.Errorf("unsupported AUTH_TYPE: %q", c.AuthType)
	}
	if c.JiraMaxPages <= 0 {
		return fmt.Errorf("JIRA_MAX_PAGES must be positive, got %d", c.JiraMaxPages)
	}
	return nil
}

func firstNonEmpty(v *viper.Viper, keys ...string) string {
	for _, key := range keys {
		if val := v.GetString(key); val != "" {
			return val
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
