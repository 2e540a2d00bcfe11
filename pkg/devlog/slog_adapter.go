package devlog

import (
	"context"
	"log/slog"

	"github.com/devicehive/devicehive-go/internal/hexdump"
)

// SlogAdapter writes session events to an *slog.Logger. Useful during
// development to see protocol traffic on the console without a
// dedicated viewer.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("intent", event.Frame.Intent),
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
		if len(event.Frame.Data) > 0 {
			data, _ := hexdump.Line(event.Frame.Data, 64)
			attrs = append(attrs, slog.String("data", data))
		}
	case event.Action != nil:
		attrs = append(attrs, slog.String("action", event.Action.Name))
		if event.Action.RequestID != 0 {
			attrs = append(attrs, slog.Uint64("request_id", event.Action.RequestID))
		}
		if event.Action.Status != "" {
			attrs = append(attrs, slog.String("status", event.Action.Status))
		}
		if event.Action.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Action.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Control != nil:
		attrs = append(attrs,
			slog.String("ctrl_type", event.Control.Type.String()),
			slog.Int("attempt", event.Control.Attempt),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "devicehive", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
