package http

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dkeye/Canvas/internal/adapters/signal"
	"github.com/dkeye/Canvas/internal/app/orch"
	"github.com/dkeye/Canvas/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName    = "CanvasSessions"
	clientTokenKey = "client_token"
	tokenMaxAge    = 3600 * 24 * 7
)

// ClientTokenMiddleware gives every browser a stable token kept in the
// signed session cookie. Reconnects from the same browser share it.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// SignalOptions maps the transport part of cfg.
func SignalOptions(cfg *config.Config) signal.Options {
	return signal.Options{
		ReadLimit:  cfg.ReadLimit,
		WriteWait:  cfg.WriteWait,
		PongWait:   cfg.PongWait,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: tokenMaxAge, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	// The browser client ships separately; serve it only when deployed alongside.
	if fi, err := os.Stat(cfg.StaticPath); err == nil && fi.IsDir() {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.StaticPath, "index.html"))
		})
	} else {
		log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("no static client, serving API only")
	}

	ctrl := signal.NewSignalWSController(o, SignalOptions(cfg))
	r.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString(clientTokenKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	api := r.Group("/api")
	h := &roomHandlers{orch: o, width: cfg.CanvasWidth, height: cfg.CanvasHeight}
	api.GET("/health", h.health)
	api.GET("/stats", h.stats)
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:name", h.getRoom)
	api.GET("/rooms/:name/members", h.members)
	api.GET("/rooms/:name/history", h.history)
	api.GET("/rooms/:name/export.pdf", h.exportPDF)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
