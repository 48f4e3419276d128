package server

import "github.com/ilyakaznacheev/cleanenv"

// Config holds the server's environment configuration.
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"postgres://localhost:5432/habitsync?sslmode=disable"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogFile     string `env:"LOG_FILE"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
