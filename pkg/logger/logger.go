package logger

import (
	"fmt"
	"path"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger with JSON output and the
// requested level, falling back to info on an unknown level string.
func Setup(level string) {
	log.SetReportCaller(true)
	log.SetFormatter(&log.JSONFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
		},
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Infof("unknown log level %q, using info", level)
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetLevel(parsed)
}
