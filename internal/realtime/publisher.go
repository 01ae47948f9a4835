package realtime

import (
	"context"

	"github.com/charlesng35/gatepass/internal/services"
)

// ScanPublisher returns a validation listener that mirrors every attempt onto StreamScans.
func ScanPublisher(hub *Hub) services.ValidationListener {
	return func(_ context.Context, outcome services.ValidationOutcome) {
		if hub == nil {
			return
		}
		hub.BroadcastStream(StreamScans, Message{
			Event: scanEvent(outcome.Status),
			Data:  outcome,
		})
	}
}

// PublishSummary pushes an attendance summary to StreamAttendance subscribers.
func PublishSummary(hub *Hub, summary services.Summary) {
	if hub == nil {
		return
	}
	hub.BroadcastStream(StreamAttendance, Message{
		Event: EventSummary,
		Data: map[string]any{
			"total":           summary.Total,
			"issued_count":    summary.IssuedCount,
			"validated_count": summary.ValidatedCount,
			"pending_count":   summary.PendingCount,
			"percentage":      summary.Percentage,
			"recent":          summary.Recent,
			"generated_at":    summary.GeneratedAt,
		},
	})
}

func scanEvent(status services.ValidationStatus) string {
	switch status {
	case services.StatusAccepted:
		return EventScanAccepted
	case services.StatusAlreadyUsed:
		return EventScanAlreadyUsed
	default:
		return EventScanInvalid
	}
}
