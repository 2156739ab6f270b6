package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/juetgo/outing-management-backend/config"
	"github.com/juetgo/outing-management-backend/database"
	"github.com/juetgo/outing-management-backend/internal/auditlog"
	"github.com/juetgo/outing-management-backend/internal/auth"
	"github.com/juetgo/outing-management-backend/internal/group"
	"github.com/juetgo/outing-management-backend/internal/location"
	"github.com/juetgo/outing-management-backend/internal/matching"
	"github.com/juetgo/outing-management-backend/internal/message"
	"github.com/juetgo/outing-management-backend/internal/notification"
	"github.com/juetgo/outing-management-backend/internal/outing"
	"github.com/juetgo/outing-management-backend/internal/reports"
	"github.com/juetgo/outing-management-backend/middleware"

	_ "github.com/juetgo/outing-management-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup wires repositories, services and handlers onto the router.
func Setup(r *gin.Engine, cfg *config.Config) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	// ========== Audit Log ==========
	auditRepo := auditlog.NewRepository(database.DB)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Auth / Users ==========
	authRepo := auth.NewRepository(database.DB)
	authSvc := auth.NewService(authRepo)
	authHandler := auth.NewHandler(authSvc)

	// ========== Notifications ==========
	notifier := notification.NewNotifier()

	// ========== Outing Requests ==========
	outingRepo := outing.NewRepository(database.DB)
	groupRepo := group.NewRepository(database.DB)
	outingSvc := outing.NewService(outingRepo, groupRepo, notifier, auditSvc)
	outingHandler := outing.NewHandler(outingSvc)

	// ========== Matching ==========
	matchingSvc := matching.NewService(outingRepo, groupRepo, authRepo, notifier, auditSvc, cfg.AutoMatchMemberCap)
	matchingHandler := matching.NewHandler(matchingSvc)

	// ========== Gate Location ==========
	locationRepo := location.NewRepository(database.DB)
	locationSvc := location.NewService(locationRepo, matchingSvc, notifier, auditSvc, location.Gate{
		Latitude:  cfg.GateLatitude,
		Longitude: cfg.GateLongitude,
		Radius:    cfg.GateRadiusMeter,
	})
	locationHandler := location.NewHandler(locationSvc)

	// ========== Messages ==========
	messageRepo := message.NewRepository(database.DB)
	messageSvc := message.NewService(messageRepo, matchingSvc, notifier)
	messageHandler := message.NewHandler(messageSvc)

	// ========== Reports ==========
	reportsRepo := reports.NewRepository(database.DB)
	reportsSvc := reports.NewService(reportsRepo, reports.NewReportExporter())
	reportsHandler := reports.NewHandler(reportsSvc)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg, authSvc))

	// ========== Users ==========
	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("/me", authHandler.GetMe)
		userRoutes.PUT("/push-token", authHandler.UpdatePushToken)
	}

	// ========== Outing Requests ==========
	outingRoutes := protected.Group("/outings")
	{
		outingRoutes.POST("", outingHandler.Create)
		outingRoutes.GET("", outingHandler.Browse)
		outingRoutes.GET("/mine", outingHandler.MyRequests)
		outingRoutes.GET("/:id", outingHandler.Get)
		outingRoutes.DELETE("/:id/membership", outingHandler.Leave)
	}

	// ========== Matching ==========
	matchingRoutes := protected.Group("/matching")
	{
		matchingRoutes.POST("/join/:requestId", matchingHandler.Join)
		matchingRoutes.POST("/auto-match", matchingHandler.AutoMatch)
		matchingRoutes.GET("/suggestions", matchingHandler.Suggestions)
		matchingRoutes.GET("/active-group", matchingHandler.ActiveGroup)
	}

	// ========== Gate Location ==========
	locationRoutes := protected.Group("/location")
	{
		locationRoutes.POST("/checkin", locationHandler.CheckIn)
		locationRoutes.POST("/checkout", locationHandler.CheckOut)
		locationRoutes.GET("/gate-status/:id", locationHandler.GateStatus)
	}

	// ========== Messages ==========
	messageRoutes := protected.Group("/messages")
	{
		messageRoutes.POST("", messageHandler.Send)
		messageRoutes.GET("/:groupId", messageHandler.List)
	}

	// ========== Audit Logs ==========
	auditRoutes := protected.Group("/auditlogs")
	{
		auditRoutes.GET("", auditHandler.GetAuditLogs)
	}

	// ========== Reports ==========
	reportRoutes := protected.Group("/reports")
	{
		reportRoutes.GET("/outings", reportsHandler.OutingHistory)
	}
}
