package runlog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes run events to an slog.Logger.
// Info events are logged at Info, warnings at Warn, errors at Error.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one slog record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("stage", event.Stage.String()),
	}

	if event.Definition != "" {
		attrs = append(attrs, slog.String("definition", event.Definition))
	}
	if event.Firmware != "" {
		attrs = append(attrs, slog.String("firmware", event.Firmware))
	}

	switch {
	case event.Counts != nil:
		attrs = append(attrs,
			slog.Int("constants", event.Counts.Constants),
			slog.Int("flags", event.Counts.Flags),
			slog.Int("tables", event.Counts.Tables),
		)
	case event.Format != nil:
		attrs = append(attrs, slog.String("format", event.Format.Format))
		if event.Format.Path != "" {
			attrs = append(attrs, slog.String("path", event.Format.Path))
		}
		if event.Format.Bytes > 0 {
			attrs = append(attrs, slog.Int64("bytes", event.Format.Bytes))
		}
		if event.Format.Error != "" {
			attrs = append(attrs, slog.String("error", event.Format.Error))
		}
	case event.Element != nil:
		attrs = append(attrs,
			slog.String("kind", event.Element.Kind),
			slog.String("title", event.Element.Title),
			slog.Uint64("address", uint64(event.Element.Address)),
			slog.String("reason", event.Element.Reason),
		)
		if event.Element.Part != "" {
			attrs = append(attrs, slog.String("part", event.Element.Part))
		}
	case event.Result != nil:
		attrs = append(attrs,
			slog.Bool("success", event.Result.Success),
			slog.Int("files", len(event.Result.Files)),
			slog.Int("resolved", event.Result.Resolved),
			slog.Int("unresolved", event.Result.Unresolved),
			slog.Duration("duration", event.Result.Duration),
		)
		if event.Result.Error != "" {
			attrs = append(attrs, slog.String("error", event.Result.Error))
		}
	}

	a.logger.LogAttrs(context.Background(), slogLevel(event.Level), event.Message, attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var _ Logger = (*SlogAdapter)(nil)
