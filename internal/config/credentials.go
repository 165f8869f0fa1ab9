package config

import (
	"bufio"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Environment variable names. The VITE_ prefixed names are accepted for
// compatibility with existing .env files.
const (
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvAssistantID   = "ASSISTANT_ID"
	EnvBaseURL       = "OPENAI_BASE_URL"
	EnvOrganization  = "OPENAI_ORG_ID"
	EnvProxy         = "GRINBERGAI_PROXY"
	legacyAPIKey     = "VITE_OPENAI_API_KEY"
	legacyAssistant  = "VITE_ASSISTANT_ID"
	defaultEnvFile   = ".env"
)

// Credentials identify the account and the assistant a chat talks to
type Credentials struct {
	APIKey       string
	AssistantID  string
	BaseURL      string
	Organization string
	Proxy        string
}

// Missing returns the names of required values that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.AssistantID == "" {
		missing = append(missing, EnvAssistantID)
	}
	return missing
}

// LoadCredentials reads credentials from the environment after applying the
// .env file at envPath (empty means ".env" in the working directory).
// Missing values are logged, never fatal: the first chat turn reports them.
func LoadCredentials(envPath string, logger *zap.Logger) Credentials {
	if logger == nil {
		logger = zap.NewNop()
	}
	if envPath == "" {
		envPath = defaultEnvFile
	}

	if err := loadDotEnv(envPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not read env file", zap.String("path", envPath), zap.Error(err))
	}

	creds := Credentials{
		APIKey:       firstEnv(EnvAPIKey, legacyAPIKey),
		AssistantID:  firstEnv(EnvAssistantID, legacyAssistant),
		BaseURL:      os.Getenv(EnvBaseURL),
		Organization: os.Getenv(EnvOrganization),
		Proxy:        os.Getenv(EnvProxy),
	}

	for _, name := range creds.Missing() {
		logger.Error("missing environment variable", zap.String("name", name))
	}

	return creds
}

// Apply fills connection settings the environment left empty from cfg.
func (c Credentials) Apply(cfg Config) Credentials {
	if c.BaseURL == "" {
		c.BaseURL = cfg.BaseURL
	}
	if c.Proxy == "" {
		c.Proxy = cfg.Proxy
	}
	return c
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// loadDotEnv sets variables from a KEY=VALUE file without overriding the
// existing environment.
func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, val)
		}
	}
	return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, val, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	val = strings.Trim(strings.TrimSpace(val), `"'`)
	if key == "" {
		return "", "", false
	}
	return key, val, true
}
