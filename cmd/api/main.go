package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pflegelog.org/internal/auth"
	"pflegelog.org/internal/httpapi"
	"pflegelog.org/internal/obs"
	"pflegelog.org/internal/pflege"
	"pflegelog.org/internal/store/pg"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("PFLEGELOG_JWT_SECRET")
	if secret == "" {
		log.Fatal("PFLEGELOG_JWT_SECRET is required")
	}
	ttlRaw := os.Getenv("PFLEGELOG_JWT_TTL")
	if ttlRaw == "" {
		log.Fatal("PFLEGELOG_JWT_TTL is required (e.g. 45m)")
	}
	ttl, err := time.ParseDuration(ttlRaw)
	if err != nil {
		log.Fatalf("parse PFLEGELOG_JWT_TTL: %v", err)
	}
	addr := os.Getenv("PFLEGELOG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Postgres when a DSN is set; otherwise the in-process store, which keeps
	// local development and demos dependency-free.
	var (
		store   pflege.Store
		pgStore *pg.Store
	)
	if dsn := os.Getenv("PFLEGELOG_PG_DSN"); dsn != "" {
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
	} else {
		log.Print("PFLEGELOG_PG_DSN not set, using in-memory store")
		store = pflege.NewInMemory()
	}

	authSvc, err := auth.NewService(store, []byte(secret), ttl)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	pflegeSvc, err := pflege.NewService(store)
	if err != nil {
		log.Fatalf("pflege service: %v", err)
	}

	probe := httpapi.ReadyProbe{}
	if pgStore != nil {
		probe.DB = pgStore.DB()
	}
	api := httpapi.New(authSvc, pflegeSvc, probe, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pflegelog-api %s on %s", version, srv.Addr)

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
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
