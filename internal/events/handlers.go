package events

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogConfig configures the logging handler
type LogConfig struct {
	// Writer is where logs are written (default: os.Stderr)
	Writer io.Writer

	// IncludePayload includes event payload in log output
	IncludePayload bool

	// TimeFormat is the timestamp format (default: time.Kitchen)
	TimeFormat string
}

// LogHandler returns a handler that logs events to the configured writer.
// Format: 15:04 [event.type] nas.nasbench_201 build=01J... step=3
func LogHandler(cfg LogConfig) Handler {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.Kitchen
	}

	return func(e Event) {
		var buf strings.Builder
		buf.WriteString(e.Time.Format(cfg.TimeFormat))
		buf.WriteString(" ")
		buf.WriteString(e.String())
		if cfg.IncludePayload && e.Payload != nil {
			fmt.Fprintf(&buf, " payload=%v", e.Payload)
		}
		buf.WriteString("\n")

		fmt.Fprint(cfg.Writer, buf.String())
	}
}

// FilterHandler wraps a handler so it only sees events whose type has
// one of the given prefixes (e.g. "build.", "run.").
func FilterHandler(h Handler, prefixes ...string) Handler {
	return func(e Event) {
		for _, p := range prefixes {
			if strings.HasPrefix(string(e.Type), p) {
				h(e)
				return
			}
		}
	}
}
