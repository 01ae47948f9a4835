package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/realtime"
)

func registerRealtimeRoutes(api *gin.RouterGroup, hub *realtime.Hub, auth gin.HandlerFunc) {
	handler := handlers.NewRealtimeHandler(hub, realtime.StreamScans, realtime.StreamAttendance)
	api.GET("/realtime/scans", auth, handler.Stream)
}
