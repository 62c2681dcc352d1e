package lib

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes JSON lines to stdout, or to a dated file when logFilePath is
// set. The file stays open for the life of the process.
func Logger(logFilePath string, level zerolog.Level) zerolog.Logger {
	var target io.Writer = os.Stdout

	// check if a log file config is set
	if logFilePath != "" {
		extension := filepath.Ext(logFilePath)
		path := logFilePath
		if extension == "" {
			path = logFilePath + time.Now().Format("-2006-01-02") + ".log"
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			panic(err)
		}
		target = file
	}

	return zerolog.New(target).Level(level).With().Timestamp().Str("service", "counselhub").Logger()
}
