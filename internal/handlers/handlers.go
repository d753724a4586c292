package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"photoboard/api/internal/config"
	"photoboard/api/internal/middleware"
	"photoboard/api/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	reviews     *service.ReviewService
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	auth *service.AuthService,
	reviews *service.ReviewService,
	db *pgxpool.Pool,
	cache *redis.Client,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		reviews:     reviews,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", middleware.Auth(h.authService), h.Logout)

	images := router.Group("/images")

	// The approved list stays public so an external site can render it.
	images.GET("/approved", h.ListApproved)

	reviewed := images.Group("")
	reviewed.Use(middleware.Auth(h.authService))
	reviewed.GET("/unreviewed", h.ListUnreviewed)
	reviewed.POST("/approve", h.ApproveImage)
	reviewed.DELETE("/reject", h.RejectImage)
	reviewed.POST("/sync", h.SyncImages)
}
