package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/adapters/signal"
	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/app/orch"
	"github.com/dkeye/Banter/internal/config"
	"github.com/dkeye/Banter/internal/core"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags the browser with a long-lived opaque token.
// It identifies the client across page loads for logging; it is not a
// connection identifier — those are minted per WS connection.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, files core.FileStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BanterSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.Static("/uploads", cfg.UploadsDir)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := &API{
		Orch:         o,
		Files:        files,
		HistoryLimit: cfg.HistoryLimit,
		SearchLimit:  cfg.SearchLimit,
	}
	limiter := app.NewSendRateLimiter(cfg.SendRateLimit, cfg.SendRateWindow)
	ws := signal.NewChatWSController(o, limiter, cfg.ReadLimit, cfg.SendBuffer, cfg.PingPeriod)

	group := r.Group("/api")
	group.GET("/messages", api.listMessages)
	group.GET("/messages/history", api.messageHistory)
	group.GET("/messages/search", api.searchMessages)
	group.GET("/users", api.listUsers)
	group.GET("/users/chatted", api.chattedUsers)
	group.POST("/upload", api.uploadFile)
	group.GET("/ws/chat", func(c *gin.Context) {
		ws.HandleChat(ctx, c)
	})

	return r
}
