package logging

import (
	"os"

	"github.com/phuslu/log"
)

// Setup installs the process-wide logger. format is "json" for raw JSON
// lines on stderr; anything else selects the human-readable console writer.
func Setup(level, format string) {
	var w log.Writer
	if format == "json" {
		w = &log.IOWriter{Writer: os.Stderr}
	} else {
		w = &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		Caller:     1,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     w,
	}
}
