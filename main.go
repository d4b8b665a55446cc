package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "training-backend/docs"
	"training-backend/internal/attendance"
	"training-backend/internal/certificates"
	"training-backend/internal/courses"
	"training-backend/internal/mailer"
	"training-backend/internal/platform/auth"
	"training-backend/internal/platform/config"
	"training-backend/internal/platform/db"
	"training-backend/internal/render"
	"training-backend/internal/reports"
)

func main() {
	// 設定読み込み
	cfgPath := "config/config.yaml"
	if p := os.Getenv("APP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[ERROR] config: %v", err)
	}
	log.Printf("[INFO] mode:%s", cfg.Mode)

	if cfg.Mode == config.ModeRelease && cfg.Email.Provider == config.EmailProviderNone {
		log.Printf("[WARN] release mode with email provider %q: certificates will not be delivered", config.EmailProviderNone)
	}
	if !cfg.Auth.Verify() {
		log.Printf("[WARN] auth.verify_signature is off: admin tokens are trusted without signature check")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("[ERROR] db: %v", err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	if cfg.DB.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx, conn)
		cancel()
		if err != nil {
			log.Fatalf("[ERROR] migrate: %v", err)
		}
		log.Printf("[INFO] schema applied")
	}

	logos := render.NewHTTPLogoFetcher(
		cfg.Email.PublicBaseURL,
		time.Duration(cfg.Branding.LogoTimeoutSec)*time.Second,
		cfg.Branding.LogoMaxBytes,
	)
	renderer := render.NewRenderer(logos, render.Options{
		CompanyName:    cfg.Branding.CompanyName,
		DefaultLogoURL: cfg.Branding.DefaultLogoURL,
		Compress:       cfg.Report.CompressPDF,
		RowsPerPage:    cfg.Report.RowsPerPage,
	})

	sender, err := mailer.New(cfg.Email)
	if err != nil {
		log.Fatalf("[ERROR] mailer: %v", err)
	}

	courseSvc := courses.NewService(conn)
	attendanceSvc := attendance.NewService(conn)
	certSvc := certificates.NewService(conn, renderer, sender, certificates.Options{
		MaxCodeAttempts: cfg.Report.MaxCodeRetries,
		PublicBaseURL:   cfg.Email.PublicBaseURL,
		CompanyName:     cfg.Branding.CompanyName,
		CompanyURL:      cfg.Branding.CompanyURL,
	})
	reportSvc := reports.NewService(conn, renderer, reports.Options{CSVBOM: cfg.Report.CSVBOM})

	if cfg.Mode == config.ModeRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	origins := cfg.CORS.AllowOrigins
	if cfg.Mode == config.ModeDev {
		// 開発中のフロント
		origins = append(origins, "http://localhost:3000", "http://localhost:5173")
	}
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// /api/v1
	api := r.Group("/api/v1")
	admin := api.Group("/admin", auth.RequireAdmin(auth.Options{
		Secret:          []byte(cfg.Auth.JWTSecret),
		VerifySignature: cfg.Auth.Verify(),
		AllowedDomains:  cfg.Auth.AllowedDomains,
	}))

	auth.RegisterRoutes(admin)
	courses.RegisterRoutes(api, admin, courseSvc)
	attendance.RegisterRoutes(api, admin, attendanceSvc)
	certificates.RegisterRoutes(api, admin, certSvc)
	reports.RegisterRoutes(admin, reportSvc)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLS.Cert != "" && cfg.TLS.Key != "" {
			log.Printf("[INFO] listening on https://%s", cfg.Listen)
			err = srv.ListenAndServeTLS(cfg.TLS.Cert, cfg.TLS.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Listen)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
