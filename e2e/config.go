package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_EVENT_TIMEOUT bounds how long a scenario waits for one pushed event
	EventTimeout time.Duration `envconfig:"E2E_EVENT_TIMEOUT" default:"5s"`
	// E2E_DEBUG routes the relay's logs to stdout instead of discarding them
	Debug        bool `envconfig:"E2E_DEBUG" default:"false"`
	HistoryLimit int  `envconfig:"E2E_HISTORY_LIMIT" default:"500"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
