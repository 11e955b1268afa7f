// Package logging builds the process logger on top of logf.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output names.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Format names.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config describes the logger.
type Config struct {
	Level   string
	Format  string
	Output  string
	NoColor bool
	File    FileConfig
}

// FileConfig describes file output with rotation.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// CloseFunc flushes buffered entries and stops the logger.
type CloseFunc func()

// New creates a logger and returns it with a function that must be called
// before the process exits.
func New(cfg Config) (*logf.Logger, CloseFunc, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w, closeWriter, err := makeWriter(cfg)
	if err != nil {
		return nil, nil, err
	}

	channel, closeChannel := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          makeAppender(cfg, w),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(level, channel).With(logf.Int("pid", os.Getpid()))

	return logger, func() {
		closeChannel()
		closeWriter()
	}, nil
}

// ParseLevel maps a level name to a logf level. An empty name means info.
func ParseLevel(name string) (logf.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return logf.LevelDebug, nil
	case "", "info":
		return logf.LevelInfo, nil
	case "warn", "warning":
		return logf.LevelWarn, nil
	case "error":
		return logf.LevelError, nil
	}
	return logf.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func makeWriter(cfg Config) (io.Writer, func(), error) {
	switch strings.ToLower(cfg.Output) {
	case "", OutputStdout:
		return os.Stdout, func() {}, nil
	case OutputStderr:
		return os.Stderr, func() {}, nil
	case OutputFile:
		if cfg.File.Path == "" {
			return nil, nil, fmt.Errorf("log file path is required for %q output", OutputFile)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		return lj, func() { _ = lj.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
}

func makeAppender(cfg Config, w io.Writer) logf.Appender {
	if strings.ToLower(cfg.Format) == FormatText {
		noColor := cfg.NoColor
		return logftext.NewAppender(w, logftext.EncoderConfig{
			NoColor:    &noColor,
			EncodeTime: logf.RFC3339NanoTimeEncoder,
		})
	}

	return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
		EncodeTime:   logf.RFC3339NanoTimeEncoder,
		FieldKeyTime: "time",
	}))
}
