package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/felling-licence-api/api/swagger"
	"github.com/noah-isme/felling-licence-api/internal/middleware"
	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/pkg/config"
	"github.com/noah-isme/felling-licence-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/felling-licence-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/felling-licence-api/pkg/middleware/requestid"
)

var (
	adminOfficerRoles    = []models.UserRole{models.RoleAdminOfficer, models.RoleFieldManager, models.RoleAccountAdministrator}
	woodlandOfficerRoles = []models.UserRole{models.RoleWoodlandOfficer, models.RoleFieldManager, models.RoleAccountAdministrator}
	withdrawRoles        = []models.UserRole{models.RoleApplicant, models.RoleFieldManager, models.RoleAccountAdministrator}
	internalRoles        = []models.UserRole{models.RoleAccountAdministrator, models.RoleAdminOfficer, models.RoleWoodlandOfficer, models.RoleFieldManager}
)

func newRouter(cfg *config.Config, deps *dependencies, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", deps.observability.Health)
	r.GET("/ready", deps.observability.Ready)
	r.GET("/metrics", deps.observability.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.AuditMeta())
	api.POST("/external-access/verify", deps.externalLinks.Verify)

	authed := api.Group("/applications/:id")
	authed.Use(middleware.JWT(deps.tokens))

	authed.GET("/sub-statuses", middleware.RequireRoles(internalRoles...), deps.applications.SubStatuses)
	authed.POST("/withdraw", middleware.RequireRoles(withdrawRoles...), deps.applications.Withdraw)

	admin := authed.Group("/admin-officer-review", middleware.RequireRoles(adminOfficerRoles...))
	admin.GET("", deps.adminOfficerReviews.Get)
	admin.PUT("/agent-authority", deps.adminOfficerReviews.UpdateAgentAuthority)
	admin.PUT("/mapping", deps.adminOfficerReviews.UpdateMapping)
	admin.PUT("/constraints", deps.adminOfficerReviews.UpdateConstraints)
	admin.POST("/woodland-officer", deps.adminOfficerReviews.AssignWoodlandOfficer)
	admin.POST("/complete", deps.adminOfficerReviews.Complete)

	woodland := authed.Group("", middleware.RequireRoles(woodlandOfficerRoles...))
	woodland.PUT("/woodland-officer-review/consultations", deps.woodlandOfficerReviews.SetConsultations)
	woodland.POST("/woodland-officer-review/amendments", deps.woodlandOfficerReviews.StartAmendment)
	woodland.POST("/woodland-officer-review/amendments/:amendmentId/complete", deps.woodlandOfficerReviews.CompleteAmendment)
	woodland.POST("/public-register/publish", deps.publicRegister.Publish)
	woodland.POST("/public-register/remove", deps.publicRegister.Remove)
	woodland.GET("/external-access-links", deps.externalLinks.List)
	woodland.POST("/external-access-links", deps.externalLinks.Create)

	return r
}
