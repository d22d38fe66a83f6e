package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/picoredis/storage"
	"github.com/luma/picoredis/transport"
)

var (
	// The port to listen for http requests on
	httpPort string

	// Number of accept loops
	numListeners int

	reuse bool

	// Snapshot file restored on start and written on shutdown
	snapshot string

	trace bool
)

func init() {
	flags := ServeCmd.Flags()

	flags.StringVar(&httpPort, "http-port", "6390", "The port to serve /ping and /metrics on")
	flags.IntVar(&numListeners, "listeners", 0, "Number of listeners, defaults to the CPU count with --reuseport")
	flags.BoolVar(&reuse, "reuseport", true, "Listen with SO_REUSEPORT")
	flags.StringVar(&snapshot, "snapshot", "", "JSON snapshot to restore on start and write on shutdown")
	flags.BoolVar(&trace, "trace", false, "Log every request and reply at debug level")
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the test server",
	Long: `Run the test server

The server keeps its keyspace in memory and answers PING, ECHO, AUTH, SELECT,
GET, SET, DEL, EXISTS, INCR, KEYS and QUIT. Health and metrics are served over
HTTP on /ping and /metrics.

Usage
	picoredis serve --port 6379 --password s3cret

`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, log, err := setup(cmd)
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		store := storage.NewInmemoryStore()
		if snapshot != "" {
			if err := restoreSnapshot(store, snapshot); err != nil {
				return err
			}
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		metrics, err := transport.NewMetrics(registry)
		if err != nil {
			return err
		}

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

		s := &http.Server{
			Addr:              net.JoinHostPort(conf.Host, httpPort),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		server := transport.NewServer(transport.Options{
			Host:         conf.Host,
			Port:         conf.Port,
			Reuseport:    reuse,
			NumListeners: numListeners,
			Password:     conf.Password,
			Trace:        trace,
			Store:        store,
			Metrics:      metrics,
			Log:          log.Named("transport"),
		})

		if err := server.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.Stringer("addr", server.Addr()),
			zap.String("httpPort", httpPort),
			zap.Bool("auth", conf.Password != ""))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := server.Close(); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}

		if snapshot != "" {
			if err := writeSnapshot(store, snapshot); err != nil {
				return err
			}
			log.Info("Wrote snapshot", zap.String("path", snapshot))
		}

		log.Info("Exiting")
		return store.Close()
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping", "/metrics"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func restoreSnapshot(store storage.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return store.Restore(data)
}

func writeSnapshot(store storage.Store, path string) error {
	data, err := store.Backup()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
