package internal

import (
	"fmt"
	"practice-lab/errors"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	ReplyDelay      time.Duration `env:"REPLY_DELAY,default=1500ms" validate:"gt=0"`
	CannedReply     string        `env:"CANNED_REPLY,default=嗯，我明白你的意思了，能再多说一些吗？" validate:"required"`
	LoopBufferSize  int           `env:"LOOP_BUFFER_SIZE,default=16" validate:"gte=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	HistoryLimit    int           `env:"HISTORY_LIMIT,default=20" validate:"gt=0"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=10" validate:"gt=0"`
	SeedHistory     bool          `env:"SEED_HISTORY,default=true"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	BlugeFilepath   string        `env:"BLUGE_FILEPATH,required=true" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// LoadConfig reads the configuration from the environment and checks it.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}
