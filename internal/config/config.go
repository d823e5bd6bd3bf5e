package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	defaultPort          = 8001
	defaultDataDir       = "data"
	defaultFrontendDir   = "frontend"
	defaultBaseURL       = "https://inkludocs.inklutec.de"
	defaultAllowedOrigin = "https://inkludocs.inklutec.de"
	defaultOllamaURL     = "http://host.docker.internal:11434"
	defaultOllamaModel   = "qwen3-vl:8b"
	defaultAdminEmail    = "kontakt@inklutec.de"
	defaultAdminPassword = "inkludocs2025"

	// The key baked into old deployments; treated as unset.
	placeholderSecretKey = "inkludocs-production-key-2025"

	secretKeyFile = ".secret_key"
	databaseFile  = "inkludocs.db"
)

type Config struct {
	Port          int    `json:"port"`
	DataDir       string `json:"data_dir"`
	FrontendDir   string `json:"frontend_dir"`
	BaseURL       string `json:"base_url"`
	AllowedOrigin string `json:"allowed_origin"`
	OllamaURL     string `json:"ollama_url"`
	OllamaModel   string `json:"ollama_model"`
	SecretKey     string `json:"secret_key"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// Load reads the JSON config file when it exists, applies environment
// overrides, and fills remaining fields with defaults. A missing file is not
// an error; a malformed one is.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d is out of range", cfg.Port)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FRONTEND_DIR"); v != "" {
		cfg.FrontendDir = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ALLOWED_ORIGIN"); v != "" {
		cfg.AllowedOrigin = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.FrontendDir == "" {
		cfg.FrontendDir = defaultFrontendDir
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = defaultAllowedOrigin
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = defaultOllamaURL
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = defaultOllamaModel
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = defaultAdminEmail
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = defaultAdminPassword
	}
}

func (c Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

func (c Config) ResultsDir() string {
	return filepath.Join(c.DataDir, "results")
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseFile)
}

// EnsureSecretKey resolves the token signing key. An explicit key wins unless
// it is the known placeholder. Otherwise the key persisted under the data dir
// is reused, generating and storing a fresh one on first run.
func EnsureSecretKey(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.SecretKey != "" && cfg.SecretKey != placeholderSecretKey {
		return nil
	}

	keyPath := filepath.Join(cfg.DataDir, secretKeyFile)
	data, err := os.ReadFile(keyPath)
	if err == nil && len(data) > 0 {
		cfg.SecretKey = string(data)
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read secret key: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}
	key := hex.EncodeToString(raw)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(key), 0o600); err != nil {
		return fmt.Errorf("write secret key: %w", err)
	}

	cfg.SecretKey = key
	return nil
}
