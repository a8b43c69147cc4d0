// Package logging provides the log format used by the map and its tools. Loggers are dragonboat ILogger
// instances so that levels can be set per package by name.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Names of the loggers used in this module
const (
	MapLogger    = "bucketmap"
	MemoryLogger = "bucketmap/memory"
	CLILogger    = "cli"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// mapLogger implements the ILogger interface with custom formatting
type mapLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *mapLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *mapLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *mapLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *mapLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *mapLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *mapLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message
func (l *mapLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-16s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements dragonboat's logger.Factory. New loggers start at WARNING so that an embedding
// application sees nothing from the map unless something went wrong.
func CreateLogger(pkgName string) logger.ILogger {
	stdLogger := log.New(os.Stderr, "", log.Ldate|log.Ltime)

	return &mapLogger{
		name:   pkgName,
		level:  logger.WARNING,
		logger: stdLogger,
	}
}

var factoryOnce sync.Once

// GetLogger returns the named logger, installing the custom factory on first use
func GetLogger(name string) logger.ILogger {
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})
	return logger.GetLogger(name)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.WARNING, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers sets the level of all loggers of this module
func InitLoggers(level string) error {
	logLevel, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	GetLogger(MapLogger).SetLevel(logLevel)
	GetLogger(MemoryLogger).SetLevel(logLevel)
	GetLogger(CLILogger).SetLevel(logLevel)

	return nil
}
