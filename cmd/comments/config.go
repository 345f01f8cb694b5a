package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

type config struct {
	Listen          string        `env:"LISTEN" envDefault:":9000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"debug"`
	LogFmt          string        `env:"LOG_FMT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	JwtSecret      string        `env:"JWT_SECRET,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`

	OracleBackend  string        `env:"ORACLE_BACKEND" envDefault:"keyword"`
	OracleTimeout  time.Duration `env:"ORACLE_TIMEOUT" envDefault:"20s"`
	OracleRetryMax int           `env:"ORACLE_RETRY_MAX" envDefault:"3"`
	GeminiApiKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL  string        `env:"GEMINI_BASE_URL"`
	BadWords       []string      `env:"BAD_WORDS" envSeparator:"," envDefault:"idiot,stupid,bitch,ass"`
}

func initConfig() (*config, error) {
	cfg := &config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
