package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"voice-lab/domain"
)

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"min=32"`

	// GrowthProfile selects the absolute maximum unit size. Exactly one
	// profile is resolved at boot; the two are never mixed in a deployment.
	GrowthProfile string `env:"GROWTH_PROFILE,default=binary" validate:"oneof=binary decimal"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// GrowthMaxSize resolves the configured profile to its byte ceiling.
func (c Config) GrowthMaxSize() int {
	if c.GrowthProfile == "decimal" {
		return domain.GrowthMaxSizeDecimal
	}
	return domain.GrowthMaxSizeBinary
}
