package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and format of the service logger.
type Config struct {
	Level       string
	Pretty      bool
	ServiceName string

	// Output defaults to stdout.
	Output io.Writer
}

var global = zerolog.New(os.Stdout).With().Timestamp().Logger()

// New builds a logger from cfg. An empty or unknown level means info.
func New(cfg Config) zerolog.Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	lc := zerolog.New(w).Level(lvl).With().Timestamp()
	if cfg.ServiceName != "" {
		lc = lc.Str(FieldService, cfg.ServiceName)
	}
	return lc.Logger()
}

// Init replaces the global logger. main calls it before anything else logs.
func Init(cfg Config) {
	global = New(cfg)
}

// L returns the global logger.
func L() zerolog.Logger {
	return global
}

// Writer hands the global logger to libraries that log through an
// io.Writer, such as gorm. Each line is tagged with source.
func Writer(source string) io.Writer {
	return global.With().Str(FieldSource, source).Logger()
}
