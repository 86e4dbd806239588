// Package debug provides component-tagged logging for domlens.
//
// Log and Trace only print when debugging is on (DOMLENS_DEBUG set, or
// Enable called). Info, Warn and Error always print.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// EnvVar turns debug logging on at startup when set to any value.
const EnvVar = "DOMLENS_DEBUG"

var (
	// enabled controls whether debug logging is active
	enabled atomic.Bool

	// logFile is the optional file that receives a copy of every line
	logFile     *os.File
	logFileMu   sync.Mutex
	logFilePath string

	// stderr is where lines go when no override is set
	stderr io.Writer = os.Stderr

	logger *log.Logger
)

func init() {
	if os.Getenv(EnvVar) != "" {
		Enable()
	}
	logger = log.New(stderr, "", log.LstdFlags)
}

// Enable turns on debug logging.
func Enable() {
	enabled.Store(true)
}

// Disable turns off debug logging.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	return enabled.Load()
}

// SetOutput redirects log output to w. The mcp command uses it because
// stdout belongs to the protocol there; tests use it to capture lines.
// A nil w restores stderr.
func SetOutput(w io.Writer) {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	stderr = w
	if logFile != nil {
		logger.SetOutput(io.MultiWriter(stderr, logFile))
		return
	}
	logger.SetOutput(stderr)
}

// SetLogFile tees log output into name under the user's cache directory
// (<cache>/domlens/logs). An empty name stops writing to the file.
func SetLogFile(name string) error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if name == "" {
		logger.SetOutput(stderr)
		logFilePath = ""
		return nil
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	logDir := filepath.Join(cacheDir, "domlens", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath = filepath.Join(logDir, name)
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	logger.SetOutput(io.MultiWriter(stderr, f))
	return nil
}

// LogFilePath returns the current log file path, or empty if not set.
func LogFilePath() string {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	return logFilePath
}

// Close closes the log file if open.
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		logger.SetOutput(stderr)
	}
}

// Log logs a debug message if debug mode is enabled.
// Format: [DEBUG] [component] message
func Log(component, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	logger.Printf("[DEBUG] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Trace logs a high-volume message, such as a single pointer move, with a
// microsecond timestamp. Only when debug is enabled.
func Trace(component, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	ts := time.Now().Format("15:04:05.000000")
	logger.Printf("[TRACE] [%s] [%s] %s", ts, component, fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged, regardless of debug mode).
func Error(component, format string, args ...any) {
	logger.Printf("[ERROR] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Warn logs a warning message (always logged, regardless of debug mode).
func Warn(component, format string, args ...any) {
	logger.Printf("[WARN] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Info logs an info message (always logged, regardless of debug mode).
func Info(component, format string, args ...any) {
	logger.Printf("[INFO] [%s] %s", component, fmt.Sprintf(format, args...))
}
