package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/grapeapp/grape-backend/internal/delivery/http/handler"
	"github.com/grapeapp/grape-backend/internal/delivery/http/middleware"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
)

type Router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	likeHandler    *handler.LikeHandler
	matchHandler   *handler.MatchHandler
	chatHandler    *handler.ChatHandler
	pushHandler    *handler.PushHandler
	wsHandler      *handler.WSHandler
	authMiddleware *middleware.AuthMiddleware
	otpLimiter     *middleware.IPRateLimiter
	metrics        *telemetry.Metrics
	options        Options
}

// Options are the router settings that come from configuration.
type Options struct {
	ServiceName    string
	AllowedOrigins []string
	Tracing        bool
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	likeHandler *handler.LikeHandler,
	matchHandler *handler.MatchHandler,
	chatHandler *handler.ChatHandler,
	pushHandler *handler.PushHandler,
	wsHandler *handler.WSHandler,
	authMiddleware *middleware.AuthMiddleware,
	otpLimiter *middleware.IPRateLimiter,
	metrics *telemetry.Metrics,
	options Options,
) *Router {
	return &Router{
		authHandler:    authHandler,
		userHandler:    userHandler,
		likeHandler:    likeHandler,
		matchHandler:   matchHandler,
		chatHandler:    chatHandler,
		pushHandler:    pushHandler,
		wsHandler:      wsHandler,
		authMiddleware: authMiddleware,
		otpLimiter:     otpLimiter,
		metrics:        metrics,
		options:        options,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if r.options.Tracing {
		router.Use(otelgin.Middleware(r.options.ServiceName))
	}
	router.Use(middleware.RequestLogger(r.metrics))
	router.Use(cors.New(corsConfig(r.options.AllowedOrigins)))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	if r.metrics != nil {
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}
	router.GET("/ws", r.wsHandler.Connect)

	api := router.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth")
		{
			auth.POST("/send-otp", r.otpLimiter.Middleware(), r.authHandler.SendOTP)
			auth.POST("/verify-otp", r.otpLimiter.Middleware(), r.authHandler.VerifyOTP)
			auth.POST("/complete-profile", r.authMiddleware.RequireAuth(), r.authHandler.CompleteProfile)
			auth.POST("/send-email-otp", r.authMiddleware.RequireAuth(), r.otpLimiter.Middleware(), r.authHandler.SendEmailOTP)
			auth.POST("/verify-email-otp", r.authMiddleware.RequireAuth(), r.otpLimiter.Middleware(), r.authHandler.VerifyEmailOTP)
		}

		api.GET("/push/vapid-public-key", r.pushHandler.VapidPublicKey)

		// Protected routes
		protected := api.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			users := protected.Group("/users")
			{
				users.PUT("/me/location", r.userHandler.UpdateLocation)
				users.GET("/:userId", r.userHandler.GetUser)
				users.PUT("/:userId", r.userHandler.UpdateUser)
				users.DELETE("/:userId", r.userHandler.DeleteUser)
			}

			likes := protected.Group("/likes")
			{
				likes.POST("", r.likeHandler.CreateLike)
				likes.GET("/who-liked-me", r.likeHandler.WhoLikedMe)
				likes.POST("/accept/:likerId", r.likeHandler.AcceptLike)
				likes.POST("/reject/:likerId", r.likeHandler.RejectLike)
				likes.DELETE("/:likedId", r.likeHandler.RemoveLike)
			}

			matches := protected.Group("/matches")
			{
				matches.POST("", r.matchHandler.CreateMatch)
				matches.GET("/user/:userId", r.matchHandler.GetUserMatches)
				matches.PUT("/unmatch/:user1Id/:user2Id", r.matchHandler.Unmatch)
			}

			chat := protected.Group("/chat")
			{
				chat.POST("/send", r.chatHandler.SendMessage)
				chat.GET("/history/:otherUserId", r.chatHandler.GetHistory)
				chat.GET("/conversations", r.chatHandler.GetConversations)
			}

			protected.POST("/push/subscribe", r.pushHandler.Subscribe)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
