package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/handler"
	"github.com/noah-isme/uni-timetable-api/internal/middleware"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	"github.com/noah-isme/uni-timetable-api/pkg/config"
	"github.com/noah-isme/uni-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-timetable-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	activities *handler.ActivityHandler
	generator  *handler.ScheduleGeneratorHandler
	timetables *handler.TimetableHandler
	catalog    *handler.CatalogHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, tokens middleware.TokenValidator, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(tokens))
	admin := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	api.GET("/slot-grid", h.generator.SlotGrid)
	api.GET("/metrics/summary", admin, h.metrics.Summary)

	api.GET("/rooms", h.catalog.Rooms)
	api.GET("/room-types", h.catalog.RoomTypes)
	api.GET("/student-groups", h.catalog.StudentGroups)

	activities := api.Group("/activities")
	activities.GET("", h.activities.List)
	activities.GET("/:id", h.activities.Get)
	activities.POST("", admin, h.activities.Create)
	activities.PUT("/:id", admin, h.activities.Update)
	activities.DELETE("/:id", admin, h.activities.Delete)

	schedule := api.Group("/semesters/:id/schedule")
	schedule.GET("", h.timetables.Schedule)
	schedule.POST("/generate", admin, h.generator.Generate)
	schedule.GET("/teachers/:instructorId", h.timetables.TeacherSchedule)
	schedule.GET("/free-rooms", h.timetables.FreeRooms)
	schedule.GET("/export", h.timetables.Export)

	api.GET("/generation-jobs/:id", admin, h.generator.Job)

	return r
}
