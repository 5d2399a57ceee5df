// Package config loads process configuration from the environment, in the
// tagged-struct style this codebase's ancestor uses its own config platform
// for: a plain struct with `env` tags, parsed by caarlos0/env rather than
// hand-rolled os.Getenv calls.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the engine process needs to start listening and
// supervising games.
type Config struct {
	// ListenAddr is the address the outside-protocol websocket listener
	// binds to.
	ListenAddr string `env:"TECHNOMANCY_LISTEN_ADDR" envDefault:":7890"`

	// LogLevel selects the zap level: debug, info, warn, or error.
	LogLevel string `env:"TECHNOMANCY_LOG_LEVEL" envDefault:"info"`

	// OutsideTimeout bounds how long a single outside RPC may take before
	// the engine gives up on a player's decision. Production deployments
	// leave this at its day-long default; tests do not read it and bound
	// their calls with outside.TestTimeout (100ms) so a stuck stub fails fast.
	OutsideTimeout time.Duration `env:"TECHNOMANCY_OUTSIDE_TIMEOUT" envDefault:"24h"`

	// CardDatabasePath points at the JSON card database file to load at
	// startup.
	CardDatabasePath string `env:"TECHNOMANCY_CARD_DB_PATH" envDefault:"cards.json"`
}

// Load parses Config from the process environment, applying envDefault tags
// for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
