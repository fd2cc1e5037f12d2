package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"userdetails"`
	Env         string `env:"ENV" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	MetricsNamespace string `env:"METRICS_NAMESPACE"`
	TracingEnabled   bool   `env:"TRACING_ENABLED" envDefault:"true"`
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure     bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	BusQueueSize      int           `env:"BUS_QUEUE_SIZE" envDefault:"1024"`
	BusConcurrency    int           `env:"BUS_CONCURRENCY" envDefault:"8"`
	BusHandlerTimeout time.Duration `env:"BUS_HANDLER_TIMEOUT" envDefault:"30s"`

	// Simulated user API
	SimNetworkErrorRate float64           `env:"SIM_NETWORK_ERROR_RATE" envDefault:"0.05"`
	SimAuthErrorRate    float64           `env:"SIM_AUTH_ERROR_RATE" envDefault:"0.05"`
	SimServerErrorRate  float64           `env:"SIM_SERVER_ERROR_RATE" envDefault:"0.05"`
	SimGeneralErrorRate float64           `env:"SIM_GENERAL_ERROR_RATE" envDefault:"0.05"`
	SimLatency          time.Duration     `env:"SIM_LATENCY" envDefault:"25ms"`
	SimSeed             int64             `env:"SIM_SEED"`
	SimUsers            map[string]string `env:"SIM_USERS" envSeparator:"," envKeyValSeparator:"=" envDefault:"u-1=Alice Liddell,u-2=Bob Stone"`
	SimImageBaseURL     string            `env:"SIM_IMAGE_BASE_URL" envDefault:"https://img.example.com/users"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// rateSumTolerance absorbs float rounding when the rates add up to exactly 1.
const rateSumTolerance = 1e-9

// Validate rejects failure rates outside [0,1] or adding up to more than 1.
func (c *Config) Validate() error {
	rates := []struct {
		name string
		rate float64
	}{
		{"SIM_NETWORK_ERROR_RATE", c.SimNetworkErrorRate},
		{"SIM_AUTH_ERROR_RATE", c.SimAuthErrorRate},
		{"SIM_SERVER_ERROR_RATE", c.SimServerErrorRate},
		{"SIM_GENERAL_ERROR_RATE", c.SimGeneralErrorRate},
	}
	var (
		errs []error
		sum  float64
	)
	for _, r := range rates {
		if r.rate < 0 || r.rate > 1 {
			errs = append(errs, fmt.Errorf("config: %s must be within [0,1], got %v", r.name, r.rate))
		}
		sum += r.rate
	}
	if sum > 1+rateSumTolerance {
		errs = append(errs, fmt.Errorf("config: simulated failure rates add up to %v, above 1", sum))
	}
	if c.SimLatency < 0 {
		errs = append(errs, errors.New("config: SIM_LATENCY must not be negative"))
	}
	return errors.Join(errs...)
}

// SeedUsers builds the simulator directory from SimUsers, ordered by id.
func (c *Config) SeedUsers() ([]domain.User, error) {
	ids := make([]string, 0, len(c.SimUsers))
	for id := range c.SimUsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		image := ""
		if c.SimImageBaseURL != "" {
			image = c.SimImageBaseURL + "/" + id + ".png"
		}
		u, err := domain.New(id, c.SimUsers[id], image)
		if err != nil {
			return nil, fmt.Errorf("config: SIM_USERS: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}
