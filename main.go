package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tiffin-backend/internal/attendance"
	"tiffin-backend/internal/docs"
	"tiffin-backend/internal/members"
	"tiffin-backend/internal/menus"
	"tiffin-backend/internal/platform/auth"
	"tiffin-backend/internal/platform/config"
	"tiffin-backend/internal/platform/db"
	"tiffin-backend/internal/platform/events"
	"tiffin-backend/internal/platform/idempotency"
	"tiffin-backend/internal/platform/logger"
	"tiffin-backend/internal/platform/metrics"
	"tiffin-backend/internal/platform/server"
)

// @title                      tiffin-backend API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 設定読み込み
	cfgPath := config.DefaultPath
	if p := os.Getenv("TIFFIN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Mode, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting", "mode", cfg.Mode, "version", cfg.Version, "timezone", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to DB", "database", cfg.DB.DBName)

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, conn, "up"); err != nil {
			return err
		}
	}

	idemStore, closeIdem, err := idempotency.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer closeIdem()

	pub, closeBus, err := events.Connect(cfg.Nats.URL)
	if err != nil {
		return err
	}
	defer closeBus()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc := cfg.Location()
	authSvc := auth.NewService(auth.NewStore(conn), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.Admin.ID, cfg.Auth.Admin.Password); err != nil {
		return err
	}
	attendanceSvc := attendance.NewService(conn, pub, m, loc)
	membersSvc := members.NewService(conn, pub, m)
	menusSvc := menus.NewService(conn, loc)

	if cfg.Mode == config.ModeRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(log), m.Gin())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", idempotency.HeaderKey},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", idempotency.HeaderReplayed, logger.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1
	api := r.Group("/api/v1")
	protected := api.Group("")
	protected.Use(auth.RequireAuth([]byte(cfg.Auth.JWTSecret)))
	idem := idempotency.Middleware(idemStore, idempotency.DefaultTTL)

	auth.RegisterRoutes(api, protected, authSvc)
	attendance.RegisterRoutes(protected, attendanceSvc, idem)
	members.RegisterRoutes(protected, membersSvc, idem)
	menus.RegisterRoutes(api, protected, menusSvc)

	if cfg.Server.WebRoot != "" {
		r.NoRoute(spaHandler(os.DirFS(cfg.Server.WebRoot)))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	servers := []server.Server{server.NewHTTP("api", srv, cfg.Server.TLS.Cert, cfg.Server.TLS.Key)}
	if cfg.Server.OpsAddr != "" {
		servers = append(servers, server.NewOps(cfg.Server.OpsAddr, cfg.Metrics.Enabled, reg))
	}

	if err := server.NewApp(servers...).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// spaHandler serves the frontend build and falls back to index.html for
// client-side routes. /api/ paths stay 404.
func spaHandler(root fs.FS) gin.HandlerFunc {
	fileFS := http.FS(root)
	return func(c *gin.Context) {
		// API は対象外
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
			return
		}

		reqPath := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if reqPath == "" {
			reqPath = "index.html"
		}

		// 実ファイルがあるならそれを返す
		if f, err := fileFS.Open(reqPath); err == nil {
			defer f.Close()
			if info, err := f.Stat(); err == nil && !info.IsDir() {
				if ct := mime.TypeByExtension(path.Ext(reqPath)); ct != "" {
					c.Header("Content-Type", ct)
				}
				// index.html 以外はキャッシュ
				if reqPath != "index.html" {
					c.Header("Cache-Control", "public, max-age=86400, immutable")
				}
				http.ServeContent(c.Writer, c.Request, reqPath, info.ModTime(), f)
				return
			}
		}

		// なければ index.html にフォールバック
		idx, err := fileFS.Open("index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		defer idx.Close()
		info, err := idx.Stat()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(c.Writer, c.Request, "index.html", info.ModTime(), idx)
	}
}
