package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	AI          AIConfig          `mapstructure:"ai"`
	Application ApplicationConfig `mapstructure:"application"`
	Template    TemplateConfig    `mapstructure:"template"`
	Images      ImagesConfig      `mapstructure:"images"`
	ImageSearch ImageSearchConfig `mapstructure:"image_search"`
	Logging     LoggingConfig     `mapstructure:"logging"`

	// EnvFile is the .env file LoadConfig read, empty when there was none.
	EnvFile string `mapstructure:"-"`
}

type ApplicationConfig struct {
	Name     string        `mapstructure:"name"`
	Version  string        `mapstructure:"version"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Language string        `mapstructure:"language"`
	Storage  StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	// Template holds the source .pptx templates offered to clients.
	Template string `mapstructure:"template"`
	// Output receives generated decks, served under /media/.
	Output string `mapstructure:"output"`
	Temp   string `mapstructure:"temp"`
}

type TemplateConfig struct {
	// GenericCapable marks obj/body placeholders as able to hold images, tables and charts.
	GenericCapable bool   `mapstructure:"generic_capable"`
	DefaultOutput  string `mapstructure:"default_output"`
	Watch          bool   `mapstructure:"watch"`
}

type ImagesConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBytes     int64         `mapstructure:"max_bytes"`
}

type ImageSearchConfig struct {
	Key            string        `mapstructure:"key"`
	EngineID       string        `mapstructure:"engine_id"`
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PlaceholderURL string        `mapstructure:"placeholder_url"`
}

// Configured reports whether the search backend has credentials.
func (c *ImageSearchConfig) Configured() bool {
	return c.Key != "" && c.EngineID != ""
}

type AIConfig struct {
	ActiveProvider string                      `mapstructure:"active_provider"`
	Providers      map[string]ProviderSettings `mapstructure:"providers"`
}

type ProviderSettings struct {
	Driver      string  `mapstructure:"driver"` // gemini, openai, claude, mock
	Key         string  `mapstructure:"key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Active returns the settings of the selected provider. The driver falls back to
// the provider name so a bare "gemini:" section works.
func (c *AIConfig) Active() (string, ProviderSettings) {
	name := c.ActiveProvider
	settings := c.Providers[name]
	if settings.Driver == "" {
		settings.Driver = name
	}
	return name, settings
}

type LoggingConfig struct {
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Options  string `mapstructure:"options"`
}

// Enabled reports whether enough is configured to open a connection.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslmode)

	if c.Options != "" {
		// Basic URL encoding for the options value: space -> %20
		encodedOptions := strings.ReplaceAll(c.Options, " ", "%20")
		connStr += fmt.Sprintf("&options=%s", encodedOptions)
	}

	return connStr
}

// LoadConfig reads .env (when present) and config.yaml from the working
// directory. Callers log whether an .env file was used via Config.EnvFile.
func LoadConfig() (*Config, error) {
	envFile := ".env"
	if err := godotenv.Load(envFile); err != nil {
		envFile = ""
	}
	cfg, err := LoadConfigFrom("config.yaml")
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadConfigFrom reads an optional YAML file plus the environment into a fresh
// viper instance.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},
		{"application.port", "PORT"},
		{"application.language", "APP_LANGUAGE"},
		{"ai.active_provider", "AI_PROVIDER"},
		{"logging.mode", "LOG_MODE"},

		// Storage
		{"application.storage.template", "STORAGE_TEMPLATE"},
		{"application.storage.output", "STORAGE_OUTPUT"},
		{"application.storage.temp", "STORAGE_TEMP"},

		// Image search
		{"image_search.key", "GOOGLE_SEARCH_API_KEY"},
		{"image_search.engine_id", "GOOGLE_SEARCH_ENGINE_ID"},
		{"image_search.endpoint", "GOOGLE_SEARCH_ENDPOINT"},

		// AI Providers
		{"ai.providers.gemini.key", "GEMINI_API_KEY"},
		{"ai.providers.gemini.model", "GEMINI_MODEL"},
		{"ai.providers.openai.key", "OPENAI_API_KEY"},
		{"ai.providers.openai.model", "OPENAI_MODEL"},
		{"ai.providers.claude.key", "ANTHROPIC_API_KEY"},
		{"ai.providers.claude.model", "CLAUDE_MODEL"},
	}

	for _, m := range mappings {
		v.BindEnv(m.key, m.env)
	}
	// Older deployments used the shorter name.
	v.BindEnv("ai.providers.gemini.key", "GEMINI_API_KEY", "GEMINI_KEY")

	// Defaults
	v.SetDefault("application.name", "LessonForge")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.language", "en")
	v.SetDefault("application.storage.template", "templates_source")
	v.SetDefault("application.storage.output", "media")
	v.SetDefault("application.storage.temp", "temp")
	v.SetDefault("template.generic_capable", true)
	v.SetDefault("template.default_output", "generated_lesson.pptx")
	v.SetDefault("template.watch", true)
	v.SetDefault("images.fetch_timeout", 10*time.Second)
	v.SetDefault("images.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("images.max_bytes", 20<<20)
	v.SetDefault("image_search.timeout", 10*time.Second)
	v.SetDefault("image_search.placeholder_url", "https://picsum.photos")
	v.SetDefault("ai.providers.gemini.model", "gemini-2.5-flash")
	v.SetDefault("logging.mode", "development")

	if err := v.ReadInConfig(); err != nil {
		// Ignore if config.yaml is missing
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AI.ActiveProvider == "" {
		cfg.AI.ActiveProvider = "gemini"
	}

	return &cfg, nil
}
