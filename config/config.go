package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Log       LogConfig         `yaml:"log"`
	LLM       LLMConfig         `yaml:"llm"`
	Minio     MinioConfig       `yaml:"minio"`
	SMTP      SMTPConfig        `yaml:"smtp"`
	Slack     SlackConfig       `yaml:"slack"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Sources   map[string]string `yaml:"sources"` // agreement type key -> template source URL
	Auth      AuthConfig        `yaml:"auth"`
	Users     []User            `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig points at an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	MaxInputChars int    `yaml:"max_input_chars"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Sender   string `yaml:"sender"`
	Password string `yaml:"password"`
	Receiver string `yaml:"receiver"`
}

// Configured reports whether enough is present to attempt email delivery.
func (c *SMTPConfig) Configured() bool {
	return c.Sender != "" && c.Password != "" && c.Receiver != ""
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

func (c *SlackConfig) Configured() bool {
	return c.WebhookURL != ""
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Spec is a six-field cron expression (with seconds).
	Spec string `yaml:"spec"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default template sources, overridable per agreement type key.
var defaultSources = map[string]string{
	"DPA": "https://www.benchmarkone.com/wp-content/uploads/2018/05/GDPR-Sample-Agreement.pdf",
	"JCA": "https://www.surf.nl/files/2019-11/model-joint-controllership-agreement.pdf",
	"CCA": "https://www.fcmtravel.com/sites/default/files/2020-03/2-Controller-to-controller-data-privacy-addendum.pdf",
	"PSA": "https://greaterthan.eu/wp-content/uploads/Personal-Data-Sub-Processor-Agreement-2024-01-24.pdf",
	"SCC": "https://www.miller-insurance.com/assets/PDF-Downloads/Standard-Contractual-Clauses-SCCs.pdf",
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.MaxInputChars == 0 {
		cfg.LLM.MaxInputChars = 60000
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = "0 0 0 * * *" // every night at 00:00
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	for key, url := range defaultSources {
		if cfg.Sources[key] == "" {
			cfg.Sources[key] = url
		}
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
