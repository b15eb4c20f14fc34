package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "github.com/rs/zerolog/pkgerrors"
)

const mainPackage = "github.com/Slach/catalog-browser/"

// textWriter turns zerolog JSON events into one readable line per event,
// string fields with newlines are written as an indented block
type textWriter struct {
	Out io.Writer
}

var headerFields = map[string]bool{"time": true, "level": true, "message": true, "caller": true}

func (w *textWriter) Write(p []byte) (int, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(p), &m); err != nil {
		return w.Out.Write(p)
	}

	var ts, level, message, caller string
	_ = json.Unmarshal(m["time"], &ts)
	_ = json.Unmarshal(m["level"], &level)
	_ = json.Unmarshal(m["message"], &message)
	_ = json.Unmarshal(m["caller"], &caller)

	keys := make([]string, 0, len(m))
	for k := range m {
		if !headerFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, part := range []string{ts, strings.ToUpper(level)} {
		if part != "" {
			out.WriteString(part)
			out.WriteString(" ")
		}
	}
	if caller != "" {
		out.WriteString(caller)
		out.WriteString(" > ")
	}
	out.WriteString(message)

	for _, k := range keys {
		out.WriteString(" ")
		out.WriteString(k)
		out.WriteString("=")
		out.WriteString(formatField(m[k]))
	}
	out.WriteString("\n")
	if _, err := w.Out.Write([]byte(out.String())); err != nil {
		return 0, err
	}
	return len(p), nil
}

func formatField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(s, "\n")
		if strings.Contains(s, "\n") {
			return "\n" + s + "\n"
		}
		return s
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func stackMarshaler(err error) interface{} {
	if stackErr, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
		if st := stackErr.StackTrace(); len(st) > 0 {
			parts := strings.Split(fmt.Sprintf("%+v", st[0]), "\n\t")
			if len(parts) >= 2 {
				return fmt.Sprintf("%s > %s", strings.TrimPrefix(parts[0], mainPackage), strings.TrimPrefix(parts[1], mainPackage))
			}
		}
	}

	// no pkg/errors stack, use the one at the logging call site
	pcs := make([]uintptr, 10)
	n := runtime.Callers(3, pcs)
	var b strings.Builder
	for _, pc := range pcs[:n] {
		fn := runtime.FuncForPC(pc - 1)
		if fn == nil {
			continue
		}
		file, line := fn.FileLine(pc - 1)
		_, _ = fmt.Fprintf(&b, "%s:%d > %s\n", strings.TrimPrefix(file, mainPackage), line, strings.TrimPrefix(fn.Name(), mainPackage))
	}
	if b.Len() == 0 {
		return nil
	}
	return b.String()
}

func InitConsoleStdErrLog() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.ErrorStackMarshaler = stackMarshaler
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return strings.TrimPrefix(file, mainPackage) + ":" + strconv.Itoa(line)
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Caller().
		Logger()
}

// fatalStackHook adds stack traces to Fatal level logs
type fatalStackHook struct{}

func (h fatalStackHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.FatalLevel {
		e.Stack()
	}
}

// SetLevel applies --log-level, empty means info
func SetLevel(level string) error {
	if level == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return nil
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "bad --log-level %q", level)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

// InitLogFile sends logs to a file so they don't mess with the TUI,
// default is ~/.catalog-browser/catalog-browser.log
func InitLogFile(cliInstance *types.CLI, version string) error {
	logPath := ""
	level := ""
	if cliInstance != nil {
		logPath = cliInstance.LogPath
		level = cliInstance.LogLevel
	}
	if logPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		logPath = filepath.Join(home, ".catalog-browser", "catalog-browser.log")
	}
	if err := SetLevel(level); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open log file")
	}

	log.Logger = zerolog.New(zerolog.SyncWriter(&textWriter{Out: logFile})).
		Hook(fatalStackHook{}).
		With().
		Timestamp().
		Caller().
		Str("version", version).
		Logger()
	return nil
}
