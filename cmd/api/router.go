package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/handler"
	"github.com/noah-isme/ladder-inspection-api/internal/middleware"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ladder-inspection-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ladder-inspection-api/pkg/middleware/requestid"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// routes carries everything the HTTP router needs.
type routes struct {
	apiPrefix       string
	allowedOrigins  []string
	enableDocs      bool
	adminGroups     []string
	inspectorGroups []string

	logger  *zap.Logger
	auth    tokenValidator
	observe requestObserver
	audit   auditWriter

	authHandler       *handler.AuthHandler
	userHandler       *handler.UserHandler
	ladderHandler     *handler.LadderHandler
	inspectionHandler *handler.InspectionHandler
	exportHandler     *handler.ExportHandler
	photoHandler      *handler.PhotoHandler
	dashboardHandler  *handler.DashboardHandler
	metricsHandler    *handler.MetricsHandler
}

func (rt routes) build() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(rt.logger))
	r.Use(corsmiddleware.New(rt.allowedOrigins))
	r.Use(middleware.Metrics(rt.observe))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", rt.metricsHandler.Health)
	r.GET("/ready", rt.metricsHandler.Ready)
	r.GET("/metrics", rt.metricsHandler.Prometheus)
	if rt.enableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(rt.apiPrefix)
	api.POST("/auth/login", rt.authHandler.Login)
	api.GET("/photos/download", rt.photoHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(rt.auth))

	admin := middleware.RequireGroups(rt.adminGroups...)
	inspector := middleware.RequireGroups(rt.inspectorGroups...)

	secured.GET("/auth/me", rt.authHandler.Me)

	selfOrAdmin := middleware.RequireGroups(append(append([]string{}, rt.adminGroups...), middleware.Self)...)

	users := secured.Group("/users")
	users.GET("", admin, rt.userHandler.List)
	users.GET("/:id", selfOrAdmin, rt.userHandler.Get)
	users.POST("/:id/activate", admin, rt.userHandler.Activate)
	users.POST("/:id/deactivate", admin, rt.userHandler.Deactivate)

	ladders := secured.Group("/ladders")
	ladders.GET("", rt.ladderHandler.List)
	ladders.GET("/due", rt.ladderHandler.Due)
	ladders.GET("/export", middleware.Audit(rt.audit, rt.logger, models.AuditActionRegisterExport, "ladders"), rt.exportHandler.LadderRegister)
	ladders.GET("/:id", rt.ladderHandler.Get)
	ladders.GET("/:id/inspections", rt.inspectionHandler.ListByLadder)
	ladders.POST("", admin, rt.ladderHandler.Create)
	ladders.PATCH("/:id", admin, rt.ladderHandler.Update)
	ladders.DELETE("/:id", admin, rt.ladderHandler.Dispose)

	inspections := secured.Group("/inspections")
	inspections.GET("", rt.inspectionHandler.List)
	inspections.POST("", inspector, rt.inspectionHandler.Create)
	inspections.POST("/preview", inspector, rt.inspectionHandler.Preview)
	inspections.GET("/:id", rt.inspectionHandler.Get)
	inspections.PATCH("/:id", inspector, rt.inspectionHandler.Update)
	inspections.DELETE("/:id", admin, rt.inspectionHandler.Delete)
	inspections.GET("/:id/defects", rt.inspectionHandler.Defects)
	inspections.GET("/:id/protocol", middleware.Audit(rt.audit, rt.logger, models.AuditActionProtocolExport, "inspections"), rt.exportHandler.InspectionProtocol)
	inspections.GET("/:id/items/:itemId/photo", rt.photoHandler.ItemPhoto)

	secured.POST("/photos", inspector, rt.photoHandler.Upload)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("", rt.dashboardHandler.Summary)
	dashboard.GET("/metrics", admin, rt.dashboardHandler.Metrics)

	return r
}
