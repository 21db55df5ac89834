// Package config loads news-digest settings from the environment or a
// dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robertmeta/news-digest/delivery"
	"github.com/robertmeta/news-digest/feed"
	"github.com/robertmeta/news-digest/query"
)

// DefaultEnvFile is read when present and no file is given explicitly.
const DefaultEnvFile = ".env"

// Config is the root configuration. It is built once at startup and
// passed by value to the pipeline.
type Config struct {
	SMTP   SMTPConfig
	Email  EmailConfig
	News   NewsConfig
	Digest DigestConfig
	Log    LogConfig
}

// SMTPConfig describes the mail relay.
type SMTPConfig struct {
	Server   string        `env:"SMTP_SERVER"`
	// Kept as text so a malformed port only fails commands that send.
	Port     string        `env:"SMTP_PORT"`
	Username string        `env:"EMAIL_USERNAME"`
	Password string        `env:"EMAIL_PASSWORD"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" env-default:"30s"`
}

// EmailConfig holds the envelope addresses.
type EmailConfig struct {
	From string `env:"EMAIL_FROM"`
	// Comma separated.
	To string `env:"EMAIL_TO"`
}

// NewsConfig controls what is searched and how much is kept.
type NewsConfig struct {
	// Pipe separated, see query.Delimiter.
	Queries      string        `env:"NEWS_QUERIES"`
	MaxPerQuery  int           `env:"MAX_HEADLINES_PER_QUERY" env-default:"5"`
	Language     string        `env:"NEWS_LANGUAGE" env-default:"en-US"`
	Country      string        `env:"NEWS_COUNTRY"  env-default:"US"`
	Edition      string        `env:"NEWS_EDITION"  env-default:"US:en"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" env-default:"10s"`
}

// DigestConfig controls the subject and its date.
type DigestConfig struct {
	Subject  string `env:"DIGEST_SUBJECT"  env-default:"Daily News Digest"`
	Timezone string `env:"DIGEST_TIMEZONE" env-default:"UTC"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the configuration:
//  1. envFile if given (must exist, must end in .env);
//  2. ./.env if it exists;
//  3. the process environment.
//
// Values already in the environment are overridden by the file.
// The result is validated for compiling a digest; call ValidateDelivery
// before sending.
func Load(envFile string) (*Config, error) {
	var cfg Config

	path := envFile
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			path = DefaultEnvFile
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("env file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings needed to compile and render a digest.
func (c *Config) Validate() error {
	if _, err := c.Queries(); err != nil {
		return fmt.Errorf("NEWS_QUERIES: %w (separate terms with %q)", err, query.Delimiter)
	}
	if c.News.MaxPerQuery < 1 {
		return fmt.Errorf("MAX_HEADLINES_PER_QUERY must be >= 1, got %d", c.News.MaxPerQuery)
	}
	if c.News.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("DIGEST_TIMEZONE: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ValidateDelivery checks the settings needed to send a digest.
func (c *Config) ValidateDelivery() error {
	required := []struct {
		key, value string
	}{
		{"SMTP_SERVER", c.SMTP.Server},
		{"EMAIL_USERNAME", c.SMTP.Username},
		{"EMAIL_PASSWORD", c.SMTP.Password},
		{"EMAIL_TO", c.Email.To},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("missing required environment variable: %s", r.key)
		}
	}

	if _, err := c.SMTPPort(); err != nil {
		return err
	}
	if len(c.Recipients()) == 0 {
		return errors.New("EMAIL_TO contains no addresses")
	}
	return nil
}

// Queries returns the parsed search terms.
func (c *Config) Queries() ([]string, error) {
	return query.Parse(c.News.Queries, query.Delimiter)
}

// Recipients returns the parsed EMAIL_TO list.
func (c *Config) Recipients() []string {
	return query.SplitList(c.Email.To, query.ListDelimiter)
}

// Sender returns EMAIL_FROM, defaulting to the SMTP username.
func (c *Config) Sender() string {
	if from := strings.TrimSpace(c.Email.From); from != "" {
		return from
	}
	return strings.TrimSpace(c.SMTP.Username)
}

// SMTPPort parses SMTP_PORT.
func (c *Config) SMTPPort() (int, error) {
	raw := strings.TrimSpace(c.SMTP.Port)
	if raw == "" {
		return 0, errors.New("missing required environment variable: SMTP_PORT")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("SMTP_PORT must be an integer, got %q", c.SMTP.Port)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", port)
	}
	return port, nil
}

// Location returns the zone the digest date is computed in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Digest.Timezone)
}

// Search returns the feed locale parameters.
func (c *Config) Search() feed.Search {
	return feed.Search{
		Language: c.News.Language,
		Country:  c.News.Country,
		Edition:  c.News.Edition,
	}
}

// SMTPSettings returns the relay settings for the delivery package.
func (c *Config) SMTPSettings() delivery.SMTPConfig {
	// Only meaningful after ValidateDelivery succeeded.
	port, _ := c.SMTPPort()
	return delivery.SMTPConfig{
		Host:     strings.TrimSpace(c.SMTP.Server),
		Port:     port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		Timeout:  c.SMTP.Timeout,
	}
}
