package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// MaxVerbosity is the highest verbosity level accepted by SetVerbosity.
const MaxVerbosity = 4

var (
	logFile     *os.File
	logDir      string
	currentDay  string
	logMu       sync.Mutex
	fileLogging bool
	verbosity   int
	out         io.Writer = os.Stderr
)

var labels = map[Level]string{
	LevelDebug: colored(color.FgCyan, "[DBUG] "),
	LevelInfo:  colored(color.FgGreen, "[INFO] "),
	LevelWarn:  colored(color.FgYellow, "[WARN] "),
	LevelError: colored(color.FgRed, "[EROR] "),
}

// colorOut reports whether out is a terminal.
var colorOut = isTerminal(os.Stderr)

func colored(attr color.Attribute, s string) string {
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

var plainLabels = map[Level]string{
	LevelDebug: "[DBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[EROR] ",
}

func Init(dir string) error {
	if dir == "" {
		return nil
	}
	// A directory not already named "logs" gets a logs/ subdirectory.
	resolved := dir
	if path.Base(filepath.ToSlash(dir)) != "logs" {
		resolved = filepath.Join(dir, "logs")
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	logDir = resolved
	fileLogging = true
	if err := rotateLocked(time.Now()); err != nil {
		fileLogging = false
		return err
	}
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	fileLogging = false
}

// SetVerbosity sets how chatty Debug is. Values are clamped to [0, MaxVerbosity].
func SetVerbosity(v int) int {
	if v < 0 {
		v = 0
	}
	if v > MaxVerbosity {
		v = MaxVerbosity
	}
	logMu.Lock()
	verbosity = v
	logMu.Unlock()
	return v
}

// SetOutput redirects console output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	tty := isTerminal(w)
	logMu.Lock()
	out = w
	colorOut = tty
	logMu.Unlock()
}

// Debug prints only when verbosity is 2 or higher.
func Debug(format string, args ...interface{}) {
	logMu.Lock()
	v := verbosity
	logMu.Unlock()
	if v < 2 {
		return
	}
	log(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	log(LevelError, format, args...)
}

func log(lvl Level, format string, args ...interface{}) {
	nowTime := time.Now()
	now := nowTime.Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)

	logMu.Lock()
	defer logMu.Unlock()

	// File output has no color and rolls over daily.
	if fileLogging {
		if err := rotateLocked(nowTime); err == nil && logFile != nil {
			_, _ = fmt.Fprintf(logFile, "%s %s%s\n", now, plainLabels[lvl], msg)
		}
	}

	label := plainLabels[lvl]
	if colorOut {
		label = labels[lvl]
	}
	fmt.Fprintf(out, "%s %s%s\n", now, label, msg)
}

func rotateLocked(t time.Time) error {
	if logDir == "" {
		return nil
	}
	day := t.Format("2006-01-02")
	if logFile != nil && currentDay == day {
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	filePath := filepath.Join(logDir, day+".log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	currentDay = day
	return nil
}
