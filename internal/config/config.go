// Package config resolves the service's bind address and greeting text.
package config

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	applog "github.com/janisto/greeting-service/internal/platform/logging"
)

const (
	// DefaultHost binds every interface.
	DefaultHost = "0.0.0.0"
	// DefaultPort is the fixed listening port.
	DefaultPort = 5000
	// DefaultGreeting is the text returned by GET / when GREETING is unset.
	DefaultGreeting = "Hola desde Flask, Docker en Azure "
)

// Config is built once at startup and passed to server.New.
type Config struct {
	Host     string
	Port     int
	Greeting string
}

// Default returns the configuration used when no overrides are present.
func Default() Config {
	return Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Greeting: DefaultGreeting,
	}
}

// Addr returns host:port suitable for net.Listen.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load returns Default with the greeting taken from GREETING when it is set.
// Host and port are never overridden.
//
// The given dotenv files (".env" when none are named) are read first without
// replacing variables already in the environment. A missing file is skipped
// silently; any other read or parse failure is logged as a warning and the
// file is ignored, so Load never fails.
func Load(ctx context.Context, files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			applog.LoggerFromContext(ctx).Warn("ignoring env file", zap.String("file", f), zap.Error(err))
		}
	}

	cfg := Default()
	if v, ok := os.LookupEnv("GREETING"); ok {
		cfg.Greeting = v
	}
	return cfg
}
