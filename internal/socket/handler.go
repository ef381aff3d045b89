package socket

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// Handler upgrades authenticated requests to WebSocket connections.
type Handler struct {
	hub      *Hub
	auth     service.AuthService
	upgrader websocket.Upgrader
	ctx      context.Context
}

// NewHandler creates the upgrade handler. ctx bounds the lifetime of every
// connection; allowedOrigins empty means any origin.
func NewHandler(ctx context.Context, hub *Hub, auth service.AuthService, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Handler{
		hub:  hub,
		auth: auth,
		ctx:  ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleWebSocket reads the token from ?token= (browsers cannot set headers
// on a WebSocket handshake) or the Authorization header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	principal, err := h.auth.ResolvePrincipal(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		logger.Error().Err(err).Msg("[WebSocket] resolve principal")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("[WebSocket] upgrade failed")
		return
	}

	client := NewClient(h.hub, principal.ID, conn)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.ctx)
}

// MembershipAuthorizer adapts the permission service to a RoomAuthorizer.
// Project access never depends on the global role, so the ID is enough.
func MembershipAuthorizer(permissions service.PermissionService) RoomAuthorizer {
	return func(ctx context.Context, userID, projectID string) bool {
		_, err := permissions.CheckProjectAccess(ctx, service.Principal{ID: userID}, projectID)
		return err == nil
	}
}
