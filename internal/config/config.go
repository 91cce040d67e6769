package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/vedpatil1345/codetalk/internal/provider/gemini"
	"github.com/vedpatil1345/codetalk/internal/provider/groq"
)

// Supported chat providers.
const (
	ProviderGroq = "groq"
	ProviderArk  = "ark"
)

// Supported identity providers.
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Vision  VisionConfig
	Storage StorageConfig
	Auth    AuthConfig
	Mail    MailConfig
}

// Load reads the optional TOML file named by CODETALK_CONFIG and then the
// environment. Environment variables win over file values.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv("CODETALK_CONFIG"))
	if err != nil {
		return nil, err
	}
	return load(src)
}

func load(src source) (*Config, error) {
	server, err := src.loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := src.loadAIConfig()
	if err != nil {
		return nil, err
	}

	auth, err := src.loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Vision: VisionConfig{
			APIKey:  src.getEnvOrDefault("GEMINI_API_KEY", ""),
			Model:   src.getEnvOrDefault("GEMINI_MODEL", gemini.DefaultModel),
			BaseURL: src.getEnvOrDefault("GEMINI_BASE_URL", gemini.DefaultBaseURL),
		},
		Storage: StorageConfig{
			HistoryPath:  src.getEnvOrDefault("HISTORY_DB_PATH", "./data/history.db"),
			AccountsPath: src.getEnvOrDefault("ACCOUNTS_DB_PATH", "./data/accounts.db"),
		},
		Auth: auth,
		Mail: MailConfig{
			ServiceID:  src.getEnvOrDefault("EMAILJS_SERVICE_ID", ""),
			TemplateID: src.getEnvOrDefault("EMAILJS_TEMPLATE_ID", ""),
			PublicKey:  src.getEnvOrDefault("EMAILJS_PUBLIC_KEY", ""),
			BaseURL:    src.getEnvOrDefault("EMAILJS_BASE_URL", "https://api.emailjs.com"),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	CookieSecure   bool
}

func (s source) loadServerConfig() (ServerConfig, error) {
	port := s.getEnvOrDefault("PORT", "8080")

	var addr string
	switch {
	case strings.Contains(port, ":"):
		// Accept ":8080" or "127.0.0.1:8080" as given.
		addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		addr = ":" + port
	}

	secure, err := s.parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return ServerConfig{}, err
	}

	var origins []string
	for _, o := range strings.Split(s.getEnvOrDefault("ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return ServerConfig{Addr: addr, AllowedOrigins: origins, CookieSecure: secure}, nil
}

// AIConfig describes the chat model used for every text prompt.
type AIConfig struct {
	Provider       string
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Credentialed reports whether the selected provider has a usable credential.
func (c AIConfig) Credentialed() bool {
	if c.Provider == ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel builds the chat model for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	switch c.Provider {
	case ProviderGroq:
		return groq.NewChatModel(groq.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   c.MaxTokens,
		}), nil
	case ProviderArk:
		if !c.Credentialed() || c.Model == "" {
			return nil, fmt.Errorf("ark requires ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY plus a model")
		}
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", c.Provider)
	}
}

func (s source) loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(s.getEnvOrDefault("LLM_PROVIDER", ProviderGroq))

	temperature, err := s.parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		def := 0.7
		temperature = &def
	}

	topP, err := s.parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := s.parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := s.parseBoolEnv("LLM_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:       provider,
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}

	switch provider {
	case ProviderGroq:
		cfg.APIKey = s.getEnvOrDefault("GROQ_API_KEY", "")
		cfg.Model = s.getEnvOrDefault("GROQ_MODEL", groq.DefaultModel)
		cfg.BaseURL = s.getEnvOrDefault("GROQ_BASE_URL", groq.DefaultBaseURL)
	case ProviderArk:
		cfg.APIKey = s.getEnvOrDefault("ARK_API_KEY", "")
		cfg.AccessKey = s.getEnvOrDefault("ARK_ACCESS_KEY", "")
		cfg.SecretKey = s.getEnvOrDefault("ARK_SECRET_KEY", "")
		cfg.Model = s.getEnvOrDefault("ARK_MODEL", "")
		cfg.BaseURL = s.getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = s.getEnvOrDefault("ARK_REGION", "cn-beijing")
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// VisionConfig describes the Gemini image to code provider.
type VisionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// StorageConfig locates the on-disk databases.
type StorageConfig struct {
	HistoryPath  string
	AccountsPath string
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider        string
	FirebaseAPIKey  string
	FirebaseBaseURL string
}

func (s source) loadAuthConfig() (AuthConfig, error) {
	cfg := AuthConfig{
		Provider:        strings.ToLower(s.getEnvOrDefault("AUTH_PROVIDER", AuthLocal)),
		FirebaseAPIKey:  s.getEnvOrDefault("FIREBASE_API_KEY", ""),
		FirebaseBaseURL: s.getEnvOrDefault("FIREBASE_AUTH_BASE_URL", "https://identitytoolkit.googleapis.com"),
	}
	switch cfg.Provider {
	case AuthLocal, AuthFirebase:
		return cfg, nil
	default:
		return AuthConfig{}, fmt.Errorf("invalid AUTH_PROVIDER value %q", cfg.Provider)
	}
}

// MailConfig holds the EmailJS identifiers for the contact form.
type MailConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	BaseURL    string
}

// Enabled reports whether every EmailJS identifier is present.
func (c MailConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// source resolves keys from the environment, then from the config file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	src := source{file: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return source{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	for key, val := range raw {
		switch v := val.(type) {
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			src.file[strings.ToUpper(key)] = strings.Join(parts, ",")
		case map[string]any:
			// Nested tables are not part of the format.
		default:
			src.file[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}
	return src, nil
}

// lookup treats an empty environment variable as unset.
func (s source) lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value, true
	}
	value, ok := s.file[key]
	return value, ok
}

func (s source) getEnvOrDefault(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return defaultValue
}

func (s source) parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw, _ := s.lookup(key)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func (s source) parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := s.lookup(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func (s source) parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := s.lookup(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
