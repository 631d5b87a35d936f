// Package server assembles repositories, services and handlers into the
// HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pdfmark/internal/config"
	"pdfmark/internal/middleware"
	"pdfmark/internal/modules/activity"
	"pdfmark/internal/modules/admin"
	"pdfmark/internal/modules/auth"
	"pdfmark/internal/modules/files"
	jwtsvc "pdfmark/internal/pkg/jwt"
	"pdfmark/internal/pkg/response"
	"pdfmark/internal/render"
	"pdfmark/internal/repository"
	"pdfmark/internal/storage"
)

type Server struct {
	Router *gin.Engine
	Hub    *activity.Hub
}

func New(cfg *config.Config, db *gorm.DB, blobs storage.Store) *Server {
	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	fileRepo := repository.NewFileRecordRepository(db)

	jwtService := jwtsvc.New(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	hub := activity.NewHub()

	authService := auth.NewService(userRepo, refreshRepo, jwtService, auth.Config{
		AccessTTL:          cfg.Auth.JWTAccessTTL,
		RefreshTTL:         cfg.Auth.RefreshTTL,
		RefreshTokenPepper: cfg.Auth.RefreshTokenPepper,
		AllowAdminSignup:   cfg.Auth.AllowAdminSignup,
	})
	authHandler := auth.NewHandler(authService)

	filesService := files.NewService(fileRepo, blobs, render.NewRenderer(), hub, cfg.MaxUploadBytes)
	filesHandler := files.NewHandler(filesService)

	adminService := admin.NewService(fileRepo, userRepo, hub)
	adminHandler := admin.NewHandler(adminService)
	activityHandler := activity.NewHandler(hub, cfg.CORSOrigins)

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = 32 << 20

	api := r.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"message": "pong"})
		})

		// public
		authHandler.RegisterPublicRoutes(api)

		// websocket clients pass the token in the query string
		events := api.Group("/admin", middleware.QueryTokenAuth(jwtService), middleware.RequireAdmin())
		activityHandler.RegisterRoutes(events)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			filesHandler.RegisterRoutes(protected)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.RequireAdmin())
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	return &Server{Router: r, Hub: hub}
}
