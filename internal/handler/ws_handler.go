package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/geoattend/attendance-api/internal/realtime"
)

// WSHandler upgrades HTTP connections into the broadcast hub.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler builds the websocket entry point. An empty origin list
// allows every origin, matching local development; mobile clients send no
// Origin header and are always allowed.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(originSet) == 0 {
					return true
				}
				_, ok := originSet[strings.TrimRight(origin, "/")]
				return ok
			},
		},
	}
}

// Serve godoc
// @Summary Upgrade to the realtime broadcast channel
// @Tags Realtime
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.NewClient(conn, c.GetHeader("Origin"))
	h.hub.Register(client)
	h.logger.Info("client connected",
		zap.String("client_id", client.ID), zap.String("origin", c.GetHeader("Origin")))

	go client.WritePump()
	go client.ReadPump()
}
