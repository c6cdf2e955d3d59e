package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza las credenciales y endpoints de los servicios Watson.
// Un URL vacio indica que no hay servicio real configurado.
type Config struct {
	NLCUsername      string        `env:"NLC_USERNAME"`
	NLCPassword      string        `env:"NLC_PASSWORD"`
	NLCURL           string        `env:"NLC_URL"`
	NLCClassifierID  string        `env:"NLC_CLASSIFIER_ID"`
	PIUsername       string        `env:"PI_USERNAME"`
	PIPassword       string        `env:"PI_PASSWORD"`
	PIURL            string        `env:"PI_URL"`
	AuthorizationURL string        `env:"WATSON_AUTHORIZATION_URL"`
	Timeout          time.Duration `env:"WATSON_TIMEOUT" envDefault:"60s"`
	RateLimit        float64       `env:"WATSON_RATE_LIMIT" envDefault:"0"`
	StatusDelay      time.Duration `env:"NLC_STATUS_DELAY" envDefault:"2s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig configura el servidor que simula los servicios Watson.
type ServerConfig struct {
	HTTPPort         string        `env:"HTTP_PORT" envDefault:"8080"`
	Username         string        `env:"MOCK_USERNAME" envDefault:"watson"`
	Password         string        `env:"MOCK_PASSWORD" envDefault:"watson"`
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"mock-watson-secret"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	TrainingDuration time.Duration `env:"TRAINING_DURATION" envDefault:"1m"`
	RequestLimit     int           `env:"REQUEST_LIMIT" envDefault:"0"`
	RequestWindow    time.Duration `env:"REQUEST_WINDOW" envDefault:"1m"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// HasNLC indica si hay un servicio de clasificacion real configurado.
func (c *Config) HasNLC() bool {
	return c.NLCURL != "" && c.NLCUsername != ""
}

// HasPersonalityInsights indica si hay un servicio de perfiles real configurado.
func (c *Config) HasPersonalityInsights() bool {
	return c.PIURL != "" && c.PIUsername != ""
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServerConfig carga la configuración del servidor simulado.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
