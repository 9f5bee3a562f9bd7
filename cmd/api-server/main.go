package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"sessionmeta/internal/auth"
	"sessionmeta/internal/grpcserver"
	"sessionmeta/internal/meta"
	synchub "sessionmeta/internal/sync"
	"sessionmeta/internal/watch"
	"sessionmeta/pkg/logger"
	"sessionmeta/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("META_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", "error", err)
	}
	log.Info("servers stopped")
}

func run(cfg utils.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := meta.NewStore(cfg.Paths, meta.Options{
		FallbackDir: cfg.FallbackDir,
		Cohorts:     cfg.Cohorts,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
		Logger:      log.With("component", "meta"),
	})

	hub := synchub.NewHub(log.With("component", "sync"))
	tcpSrv := synchub.NewServer(cfg.TCPAddr, hub, log.With("component", "tcp-sync"))
	tcpSrv.LoadID = func() string { return store.Current().ID() }
	grpcSrv := grpcserver.NewServer(cfg.GRPCAddr, log.With("component", "grpc"))

	store.OnReload(grpcSrv.SetIndex)
	store.OnReload(func(ix *meta.Index) {
		hub.BroadcastJSON(synchub.NewReloadEvent(ix))
	})

	if len(cfg.Paths) == 0 {
		log.Warn("MASTER_INDEX_PATHS not configured; meta lookups will report not loaded")
	} else {
		store.Reload()
	}

	guard := auth.Guard{
		StaticToken: cfg.Auth.APIToken,
		Tokens: auth.TokenService{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Issuer:   cfg.Auth.JWTIssuer,
			Duration: cfg.Auth.JWTDuration,
		},
	}
	if !guard.Enabled() {
		log.Warn("no API token or JWT secret configured; lookup and reload are unauthenticated")
	}

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log.With("component", "http")))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	metaHandler := meta.NewHandler(store, guard.Middleware())
	router.GET("/health", metaHandler.Health)
	router.GET("/ws", synchub.WSHandler(hub))
	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		status, code := "ready", http.StatusOK
		if !store.Current().Loaded() {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":      status,
			"load_id":     store.Current().ID(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})
	metaHandler.RegisterRoutes(router.Group("/meta"))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := tcpSrv.Run(); err != nil {
			return fmt.Errorf("tcp sync: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcSrv.Run(); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP API listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	if cfg.Watch && len(cfg.Paths) > 0 {
		w, err := watch.New(cfg.Paths, cfg.FallbackDir, func() { store.Reload() }, log.With("component", "watch"))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown error", "error", err)
		}
		if err := tcpSrv.Close(); err != nil {
			log.Warn("tcp shutdown error", "error", err)
		}
		grpcSrv.Stop()
		return nil
	})

	return g.Wait()
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
