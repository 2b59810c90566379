package cli

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

func newLogger(level, format string, out io.Writer) (*log.Logger, error) {
	l := log.New()
	l.SetOutput(out)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log_format: unknown format %q (valid: text, json)", format)
	}
	return l, nil
}
