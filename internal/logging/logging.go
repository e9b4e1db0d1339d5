// Package logging writes structured JSON log lines.
//
// Every line carries ts, level, component and event keys plus arbitrary fields,
// matching the access log format written by the HTTP middleware.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Fields are extra key/value pairs attached to a log line.
type Fields map[string]any

// Logger writes one JSON object per line. A nil *Logger discards everything.
type Logger struct {
	mu        *sync.Mutex
	out       io.Writer
	loc       *time.Location
	component string
}

// New returns a logger writing to w with timestamps in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, out: w, loc: loc}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a copy of l tagged with component. The copy shares the writer.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	c.component = component
	return &c
}

func (l *Logger) Info(event string, f Fields) {
	l.write("info", "success", event, nil, f)
}

func (l *Logger) Warn(event string, err error, f Fields) {
	l.write("warn", "degraded", event, err, f)
}

func (l *Logger) Error(event string, err error, f Fields) {
	l.write("error", "error", event, err, f)
}

func (l *Logger) write(level, status, event string, err error, f Fields) {
	if l == nil {
		return
	}
	data := make(map[string]any, len(f)+6)
	for k, v := range f {
		data[k] = v
	}
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	data["level"] = level
	data["event"] = event
	if _, ok := data["status"]; !ok {
		data["status"] = status
	}
	if l.component != "" {
		data["component"] = l.component
	}
	if err != nil {
		data["error_message"] = err.Error()
	}

	b, mErr := json.Marshal(data)
	if mErr != nil {
		log.Printf("failed to marshal log line: %v", mErr)
		return
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(b)
}
