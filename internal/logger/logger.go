// Package logger provides structured logging on top of zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
}

type zlog struct {
	l zerolog.Logger
}

var global Logger = &zlog{l: zerolog.New(os.Stdout).With().Timestamp().Logger()}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// New builds a logger from cfg without touching the global one.
func New(cfg Config) (Logger, error) {
	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	case "plain":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: true}
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, err
		}
	}

	return &zlog{l: zerolog.New(output).Level(level).With().Timestamp().Logger()}, nil
}

// Init replaces the global logger.
func Init(cfg Config) (Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	global = l
	log.Logger = l.(*zlog).l
	return l, nil
}

func Get() Logger {
	return global
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() Logger {
	return &zlog{l: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

func (z *zlog) Debug() *zerolog.Event { return z.l.Debug() }
func (z *zlog) Info() *zerolog.Event  { return z.l.Info() }
func (z *zlog) Warn() *zerolog.Event  { return z.l.Warn() }
func (z *zlog) Error() *zerolog.Event { return z.l.Error() }
func (z *zlog) With() zerolog.Context { return z.l.With() }

func (z *zlog) WithComponent(component string) Logger {
	return &zlog{l: z.l.With().Str("component", component).Logger()}
}
