package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/natefinch/lumberjack"

	"github.com/nerrad567/appenv/internal/infrastructure/config"
)

// defaultMaxSizeMB is the rotation size used when the config leaves it unset.
const defaultMaxSizeMB = 100

// Sink is the process-wide error log destination.
//
// Every write is a complete entry; writes are serialised so entries from
// different goroutines never interleave.
type Sink struct {
	mu   sync.Mutex
	out  io.Writer
	file *lumberjack.Logger
	path string
}

// OpenSink returns a rotating Sink appending to the file at path.
// The file itself is opened lazily on the first write.
func OpenSink(path string, cfg config.FileLoggingConfig) *Sink {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return &Sink{out: file, file: file, path: path}
}

// NewSink wraps an arbitrary writer, typically os.Stderr.
func NewSink(w io.Writer) *Sink {
	return &Sink{out: w}
}

// Path returns the log file path, or "" when the sink is not file-backed.
func (s *Sink) Path() string {
	return s.path
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

// Entry writes one diagnostic entry of the form:
//
//	file(line)
//	body
func (s *Sink) Entry(file string, line int, value any) error {
	entry := fmt.Sprintf("%s(%d)\n%s\n", file, line, FormatValue(value))
	if _, err := io.WriteString(s, entry); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}
	return nil
}

// Close closes the underlying log file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// FormatValue renders an arbitrary value for a diagnostic entry.
//
//   - nil: NULL
//   - bool: true / false
//   - string: verbatim
//   - error: its message
//   - structs, maps, slices and pointers to them: indented JSON
//   - anything else: %+v
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return v
	case error:
		return v.Error()
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL"
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		data, err := json.MarshalIndent(value, "", "    ")
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%+v", value)
}
