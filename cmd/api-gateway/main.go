package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uni-timetable-api/api/swagger"
	"github.com/noah-isme/uni-timetable-api/internal/handler"
	"github.com/noah-isme/uni-timetable-api/internal/repository"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	"github.com/noah-isme/uni-timetable-api/pkg/cache"
	"github.com/noah-isme/uni-timetable-api/pkg/config"
	"github.com/noah-isme/uni-timetable-api/pkg/database"
	"github.com/noah-isme/uni-timetable-api/pkg/export"
	"github.com/noah-isme/uni-timetable-api/pkg/logger"
)

// @title University Timetable API
// @version 1.0.0
// @description Activity registry, timetable generation and timetable queries.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	grid, err := scheduler.NewGrid(cfg.Scheduler.Days, cfg.Scheduler.SlotsPerDay, cfg.Scheduler.DayStart, cfg.Scheduler.SlotMinutes)
	if err != nil {
		logr.Fatal("invalid slot grid configuration", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		logr.Info("database migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and distributed lock", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	activityRepo := repository.NewActivityRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	groupRepo := repository.NewStudentGroupRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	guard := service.NewGenerationGuard(nil, cfg.Scheduler.LockTTL, metricsSvc, logr)
	if cfg.Scheduler.DistributedLock && redisClient != nil {
		guard = service.NewGenerationGuard(repository.NewGenerationLockRepository(redisClient), cfg.Scheduler.LockTTL, metricsSvc, logr)
	}

	activitySvc := service.NewActivityService(activityRepo, service.ActivityReferences{
		Semesters:     semesterRepo,
		Courses:       courseRepo,
		Instructors:   instructorRepo,
		StudentGroups: groupRepo,
		RoomTypes:     service.ExistsFunc(roomRepo.TypeExists),
	}, cacheSvc, validate, logr)

	generatorSvc := service.NewScheduleGeneratorService(
		semesterRepo,
		activityRepo,
		roomRepo,
		groupRepo,
		timetableRepo,
		entryRepo,
		db,
		guard,
		cacheSvc,
		metricsSvc,
		grid,
		validate,
		logr,
		service.ScheduleGeneratorConfig{SearchBudget: cfg.Scheduler.SearchBudget},
	)

	jobSvc := service.NewGenerationJobService(generatorSvc, service.GenerationJobConfig{
		Workers:    cfg.Scheduler.JobWorkers,
		MaxRetries: cfg.Scheduler.JobRetries,
		RetryDelay: cfg.Scheduler.JobRetryDelay,
		ResultTTL:  cfg.Scheduler.JobResultTTL,
	}, logr)

	querySvc := service.NewTimetableQueryService(timetableRepo, entryRepo, roomRepo, cacheSvc, grid, logr)
	exportSvc := service.NewExportService(querySvc, courseRepo, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr)
	catalogSvc := service.NewCatalogService(roomRepo, roomRepo, groupRepo, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: cacheRepo.Ping})
	}

	router := newRouter(cfg, logr, metricsSvc, tokenSvc, routeHandlers{
		activities: handler.NewActivityHandler(activitySvc),
		generator:  handler.NewScheduleGeneratorHandler(generatorSvc, jobSvc),
		timetables: handler.NewTimetableHandler(querySvc, exportSvc),
		catalog:    handler.NewCatalogHandler(catalogSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, checks...),
	})

	jobSvc.Start(ctx)
	defer jobSvc.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Ints("days", grid.Days()),
			zap.Int("slots_per_day", grid.SlotsPerDay()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
