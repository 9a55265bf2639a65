package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/apptest-api/internal/application"
	appai "github.com/bryanwahyu/apptest-api/internal/application/ai"
	appapk "github.com/bryanwahyu/apptest-api/internal/application/apk"
	appexe "github.com/bryanwahyu/apptest-api/internal/application/exe"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
	appweb "github.com/bryanwahyu/apptest-api/internal/application/web"
	"github.com/bryanwahyu/apptest-api/internal/config"
	domapk "github.com/bryanwahyu/apptest-api/internal/domain/apk"
	domexe "github.com/bryanwahyu/apptest-api/internal/domain/exe"
	domhistory "github.com/bryanwahyu/apptest-api/internal/domain/history"
	openaiclient "github.com/bryanwahyu/apptest-api/internal/infra/ai/openai"
	"github.com/bryanwahyu/apptest-api/internal/infra/apkparser"
	mysqlp "github.com/bryanwahyu/apptest-api/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/apptest-api/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/apptest-api/internal/infra/db/sqlite"
	"github.com/bryanwahyu/apptest-api/internal/infra/executor/exerunner"
	"github.com/bryanwahyu/apptest-api/internal/infra/httpserver"
	"github.com/bryanwahyu/apptest-api/internal/infra/pagespeed"
	minioStore "github.com/bryanwahyu/apptest-api/internal/infra/storage"
	"github.com/bryanwahyu/apptest-api/internal/middleware"
)

type repositories struct {
	history domhistory.Repository
	apk     domapk.Repository
	exe     domexe.Repository
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, *repositories, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, &repositories{
			history: mysqlp.NewHistoryRepository(db),
			apk:     mysqlp.NewApkReportRepository(db),
			exe:     mysqlp.NewExeResultRepository(db),
		}, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, &repositories{
			history: postgresp.NewHistoryRepository(db),
			apk:     postgresp.NewApkReportRepository(db),
			exe:     postgresp.NewExeResultRepository(db),
		}, nil
	case "sqlite":
		db, err := sqlitep.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, &repositories{
			history: sqlitep.NewHistoryRepository(db),
			apk:     sqlitep.NewApkReportRepository(db),
			exe:     sqlitep.NewExeResultRepository(db),
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, repos, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// init minio (optional: skip artifact uploads when not configured)
	var artifacts domapk.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	clock := application.SystemClock{}

	historySvc := &apphistory.Service{Repo: repos.history, Clock: clock}

	webSvc := &appweb.Service{
		Auditor: pagespeed.New(cfg.PageSpeed.APIKey, cfg.PageSpeed.Strategy),
		History: historySvc,
	}

	apkSvc := &appapk.Service{
		Parser:    apkparser.New(),
		Repo:      repos.apk,
		Artifacts: artifacts,
		Scorer:    domapk.NewScorer(cfg.APK.CurrentSDK),
		History:   historySvc,
		Clock:     clock,
	}

	exeSvc := &appexe.Service{
		Runner:  exerunner.NewRunner(),
		Repo:    repos.exe,
		History: historySvc,
		Clock:   clock,
	}

	var aiSvc *appai.Service
	if cfg.AI.APIKey != "" {
		aiSvc = appai.NewService(openaiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model))
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(100, 10))
	if len(cfg.Auth.Keys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	} else {
		mux.Use(middleware.HeaderIdentity)
	}
	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Mount("/", httpserver.NewRouter(historySvc, webSvc, apkSvc, exeSvc, aiSvc, cfg.APK.UploadDir))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
