package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	App      AppConfig      `yaml:"app"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Redis    RedisConfig    `yaml:"redis"`
	Jobs     JobsConfig     `yaml:"jobs"`
	AI       AIConfig       `yaml:"ai"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres or sqlite
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"dbname"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	FrontendURL    string   `yaml:"frontend_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	DefaultLiquidity float64       `yaml:"default_liquidity"`
}

// LedgerConfig selects and configures the ledger backend
type LedgerConfig struct {
	Mode          string        `yaml:"mode"` // simulated or solana
	MinDelay      time.Duration `yaml:"min_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	HistorySize   int           `yaml:"history_size"`
	SolanaNetwork string        `yaml:"solana_network"`
	SolanaRPCURL  string        `yaml:"solana_rpc_url"`
	SolanaKey     string        `yaml:"solana_private_key"`
	RateLimit     float64       `yaml:"rate_limit"` // submissions per second
}

// RedisConfig enables the cross-instance event bus when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// JobsConfig holds background job intervals. A zero BotInterval disables
// scheduled bot execution.
type JobsConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	BotInterval   time.Duration `yaml:"bot_interval"`
}

// AIConfig configures the OpenAI-compatible model behind /api/ai. AI
// features are disabled while APIKey is empty.
type AIConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second
}

// Enabled reports whether an API key is configured
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when neither a config file nor
// environment variables override a value.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			DBName:     "oracle_market",
			SQLitePath: "oracle_market.db",
		},
		Server: ServerConfig{
			Port: "8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		App: AppConfig{
			TokenTTL:         24 * time.Hour,
			DefaultLiquidity: 1000,
		},
		Ledger: LedgerConfig{
			Mode:          "simulated",
			MinDelay:      10 * time.Millisecond,
			MaxDelay:      60 * time.Millisecond,
			HistorySize:   1000,
			SolanaNetwork: "devnet",
			RateLimit:     5,
		},
		Redis: RedisConfig{
			Channel: "oracle-market:events",
		},
		Jobs: JobsConfig{
			SweepInterval: 10 * time.Second,
		},
		AI: AIConfig{
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			RateLimit: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from an optional YAML file (CONFIG_FILE) and then
// from environment variables, which take precedence.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) error {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.FrontendURL = getEnv("FRONTEND_URL", c.Server.FrontendURL)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.App.JWTSecret = getEnv("JWT_SECRET", c.App.JWTSecret)

	c.Ledger.Mode = getEnv("LEDGER_MODE", c.Ledger.Mode)
	c.Ledger.SolanaNetwork = getEnv("SOLANA_NETWORK", c.Ledger.SolanaNetwork)
	c.Ledger.SolanaRPCURL = getEnv("SOLANA_RPC_URL", c.Ledger.SolanaRPCURL)
	c.Ledger.SolanaKey = getEnv("SOLANA_PRIVATE_KEY", c.Ledger.SolanaKey)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Channel = getEnv("REDIS_CHANNEL", c.Redis.Channel)

	c.AI.APIKey = getEnv("OPENAI_API_KEY", c.AI.APIKey)
	c.AI.BaseURL = getEnv("OPENAI_BASE_URL", c.AI.BaseURL)
	c.AI.Model = getEnv("OPENAI_MODEL", c.AI.Model)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	var err error
	if c.App.TokenTTL, err = getDuration("TOKEN_TTL", c.App.TokenTTL); err != nil {
		return err
	}
	if c.Jobs.SweepInterval, err = getDuration("SWEEP_INTERVAL", c.Jobs.SweepInterval); err != nil {
		return err
	}
	if c.Jobs.BotInterval, err = getDuration("BOT_INTERVAL", c.Jobs.BotInterval); err != nil {
		return err
	}
	if c.Ledger.MinDelay, err = getDuration("LEDGER_MIN_DELAY", c.Ledger.MinDelay); err != nil {
		return err
	}
	if c.Ledger.MaxDelay, err = getDuration("LEDGER_MAX_DELAY", c.Ledger.MaxDelay); err != nil {
		return err
	}
	if c.Ledger.RateLimit, err = getFloat("LEDGER_RATE_LIMIT", c.Ledger.RateLimit); err != nil {
		return err
	}
	if c.App.DefaultLiquidity, err = getFloat("DEFAULT_LIQUIDITY", c.App.DefaultLiquidity); err != nil {
		return err
	}
	if c.Redis.DB, err = getInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.AI.Timeout, err = getDuration("AI_TIMEOUT", c.AI.Timeout); err != nil {
		return err
	}
	if c.AI.RateLimit, err = getFloat("AI_RATE_LIMIT", c.AI.RateLimit); err != nil {
		return err
	}
	if c.Ledger.HistorySize, err = getInt("LEDGER_HISTORY_SIZE", c.Ledger.HistorySize); err != nil {
		return err
	}
	return nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Ledger.Mode {
	case "simulated":
	case "solana":
		if c.Ledger.SolanaKey == "" {
			return fmt.Errorf("SOLANA_PRIVATE_KEY is required when LEDGER_MODE=solana")
		}
	default:
		return fmt.Errorf("unsupported LEDGER_MODE %q", c.Ledger.Mode)
	}
	if c.Jobs.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.Jobs.BotInterval < 0 {
		return fmt.Errorf("BOT_INTERVAL must not be negative")
	}
	if c.Ledger.MaxDelay < c.Ledger.MinDelay {
		return fmt.Errorf("LEDGER_MAX_DELAY must not be below LEDGER_MIN_DELAY")
	}
	if c.App.DefaultLiquidity <= 0 {
		return fmt.Errorf("DEFAULT_LIQUIDITY must be positive")
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("AI_TIMEOUT must not be negative")
	}
	return nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// CORSOrigins returns the allowed origins including FRONTEND_URL when set
func (c *Config) CORSOrigins() []string {
	origins := append([]string{}, c.Server.AllowedOrigins...)
	if c.Server.FrontendURL != "" {
		origins = append(origins, c.Server.FrontendURL)
	}
	return origins
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
