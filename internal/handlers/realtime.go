package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/realtime"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/response"
)

// RealtimeHandler upgrades dashboard connections into WebSocket streams.
type RealtimeHandler struct {
	hub            *realtime.Hub
	allowedStreams map[string]struct{}
	defaults       []string
}

// NewRealtimeHandler constructs a realtime handler restricted to the given streams.
// The first stream is subscribed when the client does not ask for any.
func NewRealtimeHandler(hub *realtime.Hub, streams ...string) *RealtimeHandler {
	allowed := make(map[string]struct{}, len(streams))
	var defaults []string
	for _, stream := range streams {
		stream = normalizeStream(stream)
		if stream == "" {
			continue
		}
		if len(defaults) == 0 {
			defaults = append(defaults, stream)
		}
		allowed[stream] = struct{}{}
	}

	return &RealtimeHandler{hub: hub, allowedStreams: allowed, defaults: defaults}
}

// Stream handles GET /ws. The optional streams query is a comma separated list.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	requested := parseStreams(c.Query("streams"))
	if len(requested) == 0 {
		requested = h.defaults
	}

	streams := make([]string, 0, len(requested))
	for _, stream := range requested {
		if _, ok := h.allowedStreams[stream]; !ok {
			response.Error(c, apperrors.NewBadRequest("unknown stream: "+stream))
			return
		}
		streams = append(streams, stream)
	}

	h.hub.Serve(streams, c.Writer, c.Request)
}

func parseStreams(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if stream := normalizeStream(part); stream != "" {
			out = append(out, stream)
		}
	}
	return out
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}
