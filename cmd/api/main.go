package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"warden.org/internal/auth"
	"warden.org/internal/config"
	"warden.org/internal/httpapi"
	"warden.org/internal/obs"
	"warden.org/internal/org"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	users := auth.NewPGUserStore(db)
	perms := auth.NewPGPermissionStore(db)
	authSvc := auth.NewService(users, perms)

	// The builtin catalogue must be present before any permission check
	// can resolve its meta-permissions; refusing to start beats running
	// with a half-seeded catalogue.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := authSvc.EnsureCatalogue(seedCtx); err != nil {
		log.Fatalf("ensure permission catalogue: %v", err)
	}
	cancelSeed()

	orgSvc := org.NewService(org.NewPGStore(db), users)

	api := httpapi.New(authSvc, orgSvc, httpapi.ReadyProbe{DB: db}, httpapi.Options{
		Version:       version,
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	log.Printf("Starting warden-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
