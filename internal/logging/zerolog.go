package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZerologConfig configures the zerolog-backed logger.
type ZerologConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string

	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer

	// Console switches from JSON to human-readable console output.
	Console bool
}

// Zerolog is a Logger backed by zerolog. The minimum level can be changed
// while the logger is in use, which config hot reload relies on.
type Zerolog struct {
	mu sync.RWMutex
	zl zerolog.Logger
}

// NewZerolog creates a Logger backed by zerolog.
func NewZerolog(cfg ZerologConfig) *Zerolog {
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(writer).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	return &Zerolog{zl: zl}
}

// SetLevel changes the minimum level. Unknown levels fall back to info.
func (l *Zerolog) SetLevel(level string) {
	l.mu.Lock()
	l.zl = l.zl.Level(parseLevel(level))
	l.mu.Unlock()
}

// logger returns the current underlying logger.
func (l *Zerolog) logger() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

func (l *Zerolog) Debug(msg string, kv ...any) { zl := l.logger(); emit(zl.Debug(), msg, kv) }
func (l *Zerolog) Info(msg string, kv ...any)  { zl := l.logger(); emit(zl.Info(), msg, kv) }
func (l *Zerolog) Warn(msg string, kv ...any)  { zl := l.logger(); emit(zl.Warn(), msg, kv) }
func (l *Zerolog) Error(msg string, kv ...any) { zl := l.logger(); emit(zl.Error(), msg, kv) }

// parseLevel maps a level name to a zerolog level, defaulting to info.
func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// emit attaches alternating key/value pairs as fields. A trailing key
// without a value is recorded under "extra".
func emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	if len(kv)%2 == 1 {
		ev = ev.Interface("extra", kv[len(kv)-1])
	}
	ev.Msg(msg)
}
