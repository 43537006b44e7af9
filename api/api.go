// Package api serves the bank ledger over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/internal/logger"
	"gitlab.com/lfmsh/bank/internal/tracing"
	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/storage"
)

var zlog = logger.OtelZapLogger("api")

// Handler holds what the routes need.
type Handler struct {
	ledger  *ledger.Service
	tokens  *auth.Issuer
	avatars storage.AvatarStorage
}

func NewHandler(service *ledger.Service, tokens *auth.Issuer, avatars storage.AvatarStorage) *Handler {
	return &Handler{ledger: service, tokens: tokens, avatars: avatars}
}

// SetupRouter wires every route of the bank API. corsOrigins lists the web
// front-ends allowed to call it.
func SetupRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(cors.New(corsConfig(corsOrigins)))
	router.Use(otelgin.Middleware(tracing.ServiceName))

	router.GET("/health", HandleHealth)
	router.StaticFS(storage.MediaURLPrefix, h.avatars.FileSystem())

	v1 := router.Group("/api/v1")

	jwt := v1.Group("/auth/jwt")
	{
		jwt.POST("/create/", h.HandleLogin)
		jwt.POST("/refresh/", h.HandleRefresh)
		jwt.POST("/verify/", h.HandleVerify)
	}

	authorized := v1.Group("", h.authRequired())

	users := authorized.Group("/users")
	{
		users.GET("/", h.HandleListUsers)
		users.POST("/", h.HandleCreateUser)
		users.GET("/me/", h.HandleMe)
		users.POST("/import-images", h.HandleImportImages)
		users.POST("/import-csv", h.HandleImportCSV)
		users.POST("/admin/set-avatar/:username", h.HandleAdminSetAvatar)
		users.GET("/:username/", h.HandleGetUser)
		users.PUT("/:id", h.HandleUpdateUser)
		users.POST("/:username/avatar", h.HandleUploadAvatar)
		users.DELETE("/:username/avatar", h.HandleDeleteAvatar)
	}

	tx := authorized.Group("/transactions")
	{
		tx.GET("/", h.HandleListTransactions)
		tx.POST("/create/", h.HandleCreateTransaction)
		tx.POST("/seminar/", h.HandleCreateSeminar)
		tx.GET("/:id", h.HandleGetTransaction)
		tx.POST("/:id/process", h.HandleProcessTransaction)
		tx.POST("/:id/decline", h.HandleDeclineTransaction)
	}

	seminars := authorized.Group("/seminars")
	{
		seminars.GET("/", h.HandleListSeminars)
		seminars.GET("/:id/", h.HandleGetSeminar)
	}

	badges := authorized.Group("/badges")
	{
		badges.GET("/", h.HandleListBadges)
		badges.GET("/all", h.HandleListAllBadges)
		badges.GET("/:id", h.HandleGetBadge)
		badges.POST("/", h.HandleCreateBadge)
		badges.PUT("/:id", h.HandleUpdateBadge)
		badges.DELETE("/:id", h.HandleDeleteBadge)
		badges.PATCH("/:id/assign/:user_id", h.HandleAssignBadge)
		badges.PATCH("/unassign/:user_id", h.HandleUnassignBadge)
		badges.POST("/:id/upload-image", h.HandleUploadBadgeImage)
		badges.DELETE("/:id/image", h.HandleDeleteBadgeImage)
	}

	authorized.GET("/statistics/", h.HandleStatistics)

	tax := authorized.Group("/tax")
	{
		tax.POST("/tax", h.HandleDailyTax)
		tax.POST("/equatorial_fine", h.HandleEquatorFine)
		tax.POST("/final_fine", h.HandleFinalFine)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	config := DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config
}

// DefaultConfig returns the CORS settings shared by every origin list.
func DefaultConfig() cors.Config {
	return cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"WWW-Authenticate"},
		MaxAge:        12 * time.Hour,
	}
}

// Server runs the router until its context is cancelled.
type Server struct {
	http *http.Server
}

func NewServer(addr string, router http.Handler) *Server {
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		zlog.Info("bank API listening", zap.String("addr", s.http.Addr))
		errs <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	zlog.Info("bank API stopped")
	return nil
}
