package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/croneya/pokersync/internal/app"
	"github.com/croneya/pokersync/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller owns the websocket surface. Each connection gets an id of its
// own; the client token from the cookie is the stable participant identity
// that survives reconnects.
type Controller struct {
	Coordinator *app.Coordinator
	Registry    *app.Registry
	Hub         *app.Hub

	cfg     *config.Config
	limiter *RateLimiter
}

func NewController(coord *app.Coordinator, reg *app.Registry, hub *app.Hub, cfg *config.Config) *Controller {
	return &Controller{
		Coordinator: coord,
		Registry:    reg,
		Hub:         hub,
		cfg:         cfg,
		limiter:     NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}
}

// HandleWS upgrades the request and runs the connection's pumps.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	connID := uuid.NewString()
	log.Info().Str("module", "ws").Str("conn", connID).Str("client", token).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newWSConn(sock)
	ctl.Hub.Register(connID, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	go ctl.readPump(ctx, cancel, connID, token, conn)
}

// disconnect tears a connection down: drop it from the hub, then issue the
// implicit leave for whatever participant it was bound to.
func (ctl *Controller) disconnect(connID string) {
	ctl.Hub.Unregister(connID)
	b, _, ok := ctl.Registry.Unbind(connID)
	if !ok {
		return
	}
	// The same client token may be bound through several tabs. Only the last
	// connection for the participant triggers the implicit leave.
	if ctl.Registry.HasParticipant(b.RoomID, b.ParticipantID) {
		log.Info().Str("module", "ws").Str("conn", connID).Str("room", b.RoomID).Msg("disconnected, participant still connected elsewhere")
		return
	}
	// The transition must complete even though the connection is gone, so it
	// runs on a fresh context rather than the connection's.
	if _, err := ctl.Coordinator.Execute(context.Background(), b.RoomID, leaveCommand(b.ParticipantID)); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("room", b.RoomID).Msg("implicit leave failed")
	}
	log.Info().Str("module", "ws").Str("conn", connID).Str("room", b.RoomID).Msg("disconnected, participant removed")
}
