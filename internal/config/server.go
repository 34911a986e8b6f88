package config

import (
	"errors"
	"time"
)

// Server is the configuration of the remote backend.
type Server struct {
	Addr            string        `yaml:"addr"`
	DSN             string        `yaml:"dsn"`
	JWTKey          string        `yaml:"jwt_key"`
	AdminSecretHash string        `yaml:"admin_secret_hash"`
	RedisURL        string        `yaml:"redis_url"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxBatch        int           `yaml:"max_batch"`
	KeyTTL          time.Duration `yaml:"key_ttl"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
}

// LoadServer reads the optional YAML file, .env and the STOCK_* environment, then validates.
func LoadServer(file, envFile string) (*Server, error) {
	cfg := &Server{
		Addr:     ":8080",
		CacheTTL: 30 * time.Second,
		MaxBatch: 1000,
		KeyTTL:   24 * time.Hour,
	}
	if err := loadYAML(file, cfg); err != nil {
		return nil, err
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	overrideString(&cfg.Addr, "STOCK_SERVER_ADDR")
	overrideString(&cfg.DSN, "STOCK_DSN")
	overrideString(&cfg.JWTKey, "STOCK_JWT_KEY")
	overrideString(&cfg.AdminSecretHash, "STOCK_ADMIN_SECRET_HASH")
	overrideString(&cfg.RedisURL, "STOCK_REDIS_URL")
	overrideString(&cfg.TLSCert, "STOCK_TLS_CERT")
	overrideString(&cfg.TLSKey, "STOCK_TLS_KEY")
	if err := overrideDuration(&cfg.CacheTTL, "STOCK_CACHE_TTL"); err != nil {
		return nil, err
	}
	if err := overrideDuration(&cfg.KeyTTL, "STOCK_KEY_TTL"); err != nil {
		return nil, err
	}
	if err := overrideInt(&cfg.MaxBatch, "STOCK_MAX_BATCH"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required fields are populated.
func (c *Server) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("STOCK_SERVER_ADDR must not be empty")
	case c.DSN == "":
		return errors.New("STOCK_DSN must be provided")
	case IsPlaceholder(c.JWTKey):
		return errors.New("STOCK_JWT_KEY must be provided")
	case IsPlaceholder(c.AdminSecretHash):
		return errors.New("STOCK_ADMIN_SECRET_HASH must be provided")
	case (c.TLSCert == "") != (c.TLSKey == ""):
		return errors.New("STOCK_TLS_CERT and STOCK_TLS_KEY must be set together")
	case c.MaxBatch <= 0:
		return errors.New("STOCK_MAX_BATCH must be positive")
	case c.KeyTTL <= 0:
		return errors.New("STOCK_KEY_TTL must be positive")
	}
	return nil
}

// TLS reports whether the server should serve HTTPS.
func (c *Server) TLS() bool { return c.TLSCert != "" }
