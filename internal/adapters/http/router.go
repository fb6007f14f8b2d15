package http

import (
	"context"
	"net/http"

	"github.com/dkeye/rtcsignal/internal/adapters/signal"
	"github.com/dkeye/rtcsignal/internal/app"
	"github.com/dkeye/rtcsignal/internal/app/orch"
	"github.com/dkeye/rtcsignal/internal/config"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a per-browser token in the session cookie so
// reconnects from the same browser can be correlated in logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, stats *app.Stats) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SignalSessions", store))
	r.Use(ClientTokenMiddleware())

	ctrl := signal.NewSignalWSController(o, signal.OptionsFromConfig(cfg))
	r.GET(cfg.WSPath, ctrl.Handler(ctx))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// GET /api/rooms: list rooms
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Rooms.List()})
	})

	// GET /api/rooms/:name: members in join order
	api.GET("/rooms/:name", func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		members := o.Rooms.Members(name)
		if members == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":    name,
			"members": members,
		})
	})

	// DELETE /api/rooms/:name: close every member connection
	api.DELETE("/rooms/:name", func(c *gin.Context) {
		closed := o.EvictRoom(domain.RoomName(c.Param("name")))
		c.JSON(http.StatusOK, gin.H{"closed": closed})
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connections": o.Registry.Len(),
			"rooms":       len(o.Rooms.RoomNames()),
			"counters":    stats.Snapshot(),
		})
	})

	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"iceServers": cfg.ICEServers()})
	})

	log.Info().Str("module", "adapters.http").Str("ws_path", cfg.WSPath).Msg("router setup")
	return r
}
