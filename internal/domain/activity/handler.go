package activity

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"vaultshare/internal/pkg/jwt"
	"vaultshare/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
}

// NewHandler accepts websocket connections from the given origins. An empty
// list accepts any origin.
func NewHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		hub: hub,
		jwt: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Stream upgrades to a websocket that receives access events for the
// caller's files. Browsers cannot set headers on websocket requests, so the
// JWT may also come in the token query parameter.
func (h *Handler) Stream(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" {
		var err error
		tok, err = jwt.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required")
			return
		}
	}
	claims, err := h.jwt.ValidateToken(tok)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("activity_ws_upgrade_failed user_id=%d err=%v", claims.UserID, err)
		return
	}
	log.Printf("activity_ws_connected user_id=%d", claims.UserID)
	h.hub.ServeWS(conn, claims.UserID)
	log.Printf("activity_ws_disconnected user_id=%d", claims.UserID)
}
