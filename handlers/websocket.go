package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"energy-server/auth"
	"energy-server/logger"
	"energy-server/middleware"
	"energy-server/services"
	"energy-server/usecases"
	"energy-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type incomingMessage struct {
	Type string `json:"type"` // refresh | heartbeat
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WSHandler streams dashboards to signed-in clients.
type WSHandler struct {
	mgr        *ws.Manager
	tokens     *auth.TokenIssuer
	accounting *usecases.AccountingUseCase
	upgrader   websocket.Upgrader
}

// NewWSHandler accepts upgrades from the given origins. A "*" entry or an
// empty list allows any origin.
func NewWSHandler(mgr *ws.Manager, tokens *auth.TokenIssuer, accounting *usecases.AccountingUseCase, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		mgr:        mgr,
		tokens:     tokens,
		accounting: accounting,
		upgrader:   websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleDashboardWS upgrades to websocket and pushes the caller's dashboard.
// GET /ws?token=<jwt>
func (h *WSHandler) HandleDashboardWS(c *gin.Context) {
	log := logger.FromGin(c)

	raw := c.Query("token")
	if raw == "" {
		raw = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	claims, ok := middleware.Authenticate(c, h.tokens, raw)
	if !ok {
		return
	}
	userID := claims.UserID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	client := h.mgr.Register(userID, conn)
	log = log.With(zap.String("user_id", userID))
	log.Info("Dashboard stream connected")

	defer func() {
		h.mgr.Unregister(client)
		log.Info("Dashboard stream disconnected")
	}()

	ctx := c.Request.Context()
	h.pushDashboard(c, client, userID, log)

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("Websocket read failed", zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			_ = client.WriteJSON(errorMessage{Type: "error", Message: "Invalid message."})
			continue
		}

		switch base.Type {
		case "refresh":
			h.pushDashboard(c, client, userID, log)
		case "heartbeat":
			_ = client.WriteJSON(incomingMessage{Type: "heartbeat_ack"})
		default:
			log.Debug("Unknown websocket message", zap.String("type", base.Type))
		}
	}
}

func (h *WSHandler) pushDashboard(c *gin.Context, client *ws.Client, userID string, log *zap.Logger) {
	dash, err := h.accounting.Dashboard(c.Request.Context(), userID)
	if err != nil {
		log.Error("Building dashboard failed", zap.Error(err))
		_ = client.WriteJSON(errorMessage{Type: "error", Message: "Error building dashboard."})
		return
	}
	if err := client.WriteJSON(services.DashboardMessage{Type: "dashboard", Data: dash}); err != nil {
		log.Debug("Websocket write failed", zap.Error(err))
	}
}
