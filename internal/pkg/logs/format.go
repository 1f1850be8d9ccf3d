package logs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/tgifai/reminder/internal/consts"
)

// textFormatter renders "LEVEL time file:line logid message".
type textFormatter struct {
	enableColor bool
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if f.enableColor {
		level = colorize(entry.Level, level)
	}

	// frames: logrus internals, the facade method, the package func.
	skip := 9
	if entry.Context != nil {
		skip = 8
	}
	_, file, line, ok := runtime.Caller(skip)
	if ok {
		file = shortPath(file)
	}

	logID := ""
	if entry.Context != nil {
		logID, _ = entry.Context.Value(consts.CtxKeyLogID).(string)
	}

	return []byte(fmt.Sprintf("%s %s %s:%d %s %s\n",
		level,
		entry.Time.Format("2006-01-02 15:04:05,000"),
		file,
		line,
		logID,
		entry.Message,
	)), nil
}

// shortPath keeps the last directory and the file name.
func shortPath(full string) string {
	dir, file := filepath.Split(full)
	if dir == "" {
		return file
	}
	return filepath.Base(filepath.Clean(dir)) + "/" + file
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(p []byte) []byte {
	return ansiPattern.ReplaceAll(p, nil)
}

func shouldColorize(output string) bool {
	return output != "file" && !color.NoColor
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.DebugLevel: color.New(color.FgCyan),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
}

func colorize(level logrus.Level, text string) string {
	if c, ok := levelColors[level]; ok {
		return c.Sprint(text)
	}
	return text
}
