// Command server is the media core process entrypoint: it loads
// configuration, opens the Postgres/Redis backends, wires the
// composition root in internal/container, enqueues the startup sweep,
// and blocks until an OS signal asks it to drain and exit. There is no
// HTTP surface here — spec.md's scope is the background pipeline and
// the verify_credentials/verify_token entry points a future API layer
// would call into, not a router.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/internal/container"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/queue"
	"github.com/turahe/mediacore/pkg/logger"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the process config file")
	livenessFile := flag.String("liveness-file", "./tmp/live", "path touched on startup for a Kubernetes liveness probe")
	flag.Parse()

	config.SetConfig(*configFile)
	cfg := config.GetConfig()

	logger.Init(cfg.Log)
	defer func() {
		if logger.Log != nil {
			_ = logger.Log.Sync()
		}
	}()

	if _, err := os.Create(*livenessFile); err != nil {
		log.Fatalf("cannot create liveness file: %v", err)
	}
	defer os.Remove(*livenessFile)

	nopLog := func(string, ...any) {}
	if _, err := maxprocs.Set(maxprocs.Logger(nopLog)); err != nil {
		log.Fatalf("cannot set maxprocs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx)
	if err != nil {
		log.Fatalf("cannot build container: %v", err)
	}

	c.Queue.Enqueue(ctx, queue.ServerStartup{})
	logger.Log.Info("media core server started")

	<-ctx.Done()
	logger.Log.Info("shutdown signal received, draining task queue")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Close(shutdownCtx); err != nil {
		logger.Log.Error("error during shutdown", zap.Error(err))
	}
	pgxdb.Close()
	logger.Log.Info("media core server stopped")
}
