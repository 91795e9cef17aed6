package driver

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"pixelwatch/internal/logging"
)

// lineLogger forwards driver stdout/stderr to debug logs one line at a time.
type lineLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	buf    bytes.Buffer
}

func newLineLogger(logger *slog.Logger) *lineLogger {
	return &lineLogger{logger: logger}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			l.buf.Reset()
			l.buf.WriteString(line)
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			l.logger.Debug("driver output", logging.String("line", trimmed))
		}
	}
	return len(p), nil
}
