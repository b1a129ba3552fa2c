package hlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/kardianos/service"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger logr.Logger = logr.Discard()

// zerolog logger behind Logger, used to derive pinned loggers
var base zerolog.Logger = zerolog.Nop()

func LogToStderr() bool {
	return os.Getenv("MYVAILLANT_LOG") == "stderr"
}

// Init initializes logging for one command-line invocation: warnings and errors
// only, everything down to debug when verbose
func Init(verbose bool) {
	InitWithLevel(verbose, zerolog.WarnLevel)
}

// InitWithLevel initializes logging with a specific default level
func InitWithLevel(verbose bool, defaultLevel zerolog.Level) {
	debugInit("Initializing logger")

	var w io.Writer

	logToStderr := LogToStderr()
	isTerminal := IsTerminal()

	if logToStderr || isTerminal {
		w = os.Stderr
		debugInit("Using stderr for logging")
	} else {
		var err error
		w, err = logWriter()
		if err != nil {
			debugInit(fmt.Sprintf("Failed to create log writer: %v", err))
			panic(err)
		}
		debugInit("Created file log writer")
	}

	level := parseLogLevel(verbose, defaultLevel)
	initLogger(w, isTerminal, level)
	Logger.V(1).Info("Initialized", "level", level.String(), "verbose", verbose)

	debugInit("Logger initialization complete")
}

func initLogger(w io.Writer, console bool, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	zl := zerolog.New(w)
	if console {
		zl = zl.Output(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !isColorTerminal(),
			TimeFormat: time.RFC3339,
		})
	}

	zerolog.SetGlobalLevel(level)
	base = zl.Level(level).With().Caller().Timestamp().Logger()
	Logger = zerologr.New(&base)
}

// parseLogLevel converts the verbose flag to zerolog level
func parseLogLevel(verbose bool, defaultLevel zerolog.Level) zerolog.Level {
	if isRunningUnderDebugger() {
		debugInit("Debugger detected, forcing debug log level")
		return zerolog.DebugLevel
	}
	if verbose {
		return zerolog.DebugLevel
	}
	return defaultLevel
}

// isRunningUnderDebugger detects if the process is running under a debugger (like VSCode)
func isRunningUnderDebugger() bool {
	if os.Getenv("DELVE_DEBUGGER") != "" {
		return true
	}
	if os.Getenv("VSCODE_PID") != "" || os.Getenv("VSCODE_IPC_HOOK") != "" {
		return true
	}
	return false
}

func isColorTerminal() bool {
	if term := os.Getenv("TERM"); term == "dumb" {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if _, exists := os.LookupEnv("CLICOLOR_FORCE"); exists {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}

	if term := os.Getenv("TERM"); term != "" {
		if strings.HasSuffix(term, "-256color") ||
			strings.HasSuffix(term, "-color") ||
			strings.HasPrefix(term, "xterm") ||
			strings.HasPrefix(term, "screen") ||
			strings.HasPrefix(term, "vt100") ||
			strings.HasPrefix(term, "ansi") {
			return true
		}
	}

	return IsTerminal()
}

func logWriter() (io.Writer, error) {
	if service.Interactive() {
		debugInit("Running in interactive mode, using stderr for logging")
		return os.Stderr, nil
	}

	// Under systemd (e.g. a timer polling the status), journald collects stderr
	if os.Getenv("JOURNAL_STREAM") != "" || os.Getenv("INVOCATION_ID") != "" {
		debugInit("Running under systemd, using stderr for journald")
		return os.Stderr, nil
	}

	logDir := getLogDir()
	debugInit(fmt.Sprintf("Creating log directory: %s", logDir))

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logPath := filepath.Join(logDir, "myvaillant.log")
	debugInit(fmt.Sprintf("Log file path: %s", logPath))

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}, nil
}

// GetLogger returns a logger for the given package name
func GetLogger(packageName string) logr.Logger {
	return Logger.WithName(packageName)
}

// GetPinnedLogger returns a named logger that never logs below min, whatever the
// global level. Used for chatty dependencies (e.g. HTTP traces) that should stay
// quiet even with --verbose.
func GetPinnedLogger(name string, min zerolog.Level) logr.Logger {
	zl := base.Level(max(base.GetLevel(), min))
	return zerologr.New(&zl).WithName(name)
}

// IsContextCancellation checks if an error is due to context cancellation
func IsContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ErrorIfNotCanceled logs an error only if it's not due to context cancellation
func ErrorIfNotCanceled(log logr.Logger, err error, msg string, keysAndValues ...interface{}) {
	if err != nil && !IsContextCancellation(err) {
		log.Error(err, msg, keysAndValues...)
	}
}
