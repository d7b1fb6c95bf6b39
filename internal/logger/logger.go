package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/sqirvy-health/internal/constants"
)

var (
	// Logger is the global logger instance. Nil until Init.
	Logger *log.Logger

	mu   sync.Mutex
	file *lumberjack.Logger
)

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr overrides the console writer used in debug mode (tests)
	Stderr io.Writer
}

// LogPath returns the log file location for a config directory
func LogPath(configDir string) string {
	return filepath.Join(configDir, constants.LogDirName, constants.BinaryName+".log")
}

// Init points the global logger at the rotating log file of cfg.ConfigDir,
// mirroring to stderr in debug mode. Calling it again replaces the previous
// logger and closes its file.
func Init(cfg Config) error {
	path := LogPath(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = rotating
	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
		console := cfg.Stderr
		if console == nil {
			console = os.Stderr
		}
		w = io.MultiWriter(console, rotating)
	}

	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.BinaryName,
	})

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = rotating
	Logger = l
	return nil
}

// Close flushes and closes the log file. Later calls to the helpers are no-ops.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	Logger = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func at(level log.Level, msg string, keyvals []interface{}) {
	if l := Logger; l != nil {
		l.Log(level, msg, keyvals...)
	}
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) { at(log.DebugLevel, msg, keyvals) }

// Info logs an info message
func Info(msg string, keyvals ...interface{}) { at(log.InfoLevel, msg, keyvals) }

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) { at(log.WarnLevel, msg, keyvals) }

// Error logs an error message
func Error(msg string, keyvals ...interface{}) { at(log.ErrorLevel, msg, keyvals) }
