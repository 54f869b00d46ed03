// The pre-save server: resolves public pre-save links, redirects fans
// through the streaming provider's authorize page with a signed state token,
// and completes the save on the way back.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	presavemodule "github.com/soundgate/presave/modules/presave"
	"github.com/soundgate/presave/pkg/config"
	"github.com/soundgate/presave/pkg/logger"
	"github.com/soundgate/presave/pkg/pg"
	redisconn "github.com/soundgate/presave/pkg/redis"
	"github.com/soundgate/presave/pkg/singleuse"
	"github.com/soundgate/presave/pkg/statetoken"
	"github.com/soundgate/presave/svc/presave"

	"github.com/soundgate/presave/migrations"
)

type serverConfig struct {
	Listen          string        `env:"LISTEN_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// StateSecret signs every state token. The process refuses to start
	// without it.
	StateSecret string        `env:"PRESAVE_STATE_SECRET,required"`
	StateTTL    time.Duration `env:"PRESAVE_STATE_TTL" envDefault:"1h"`
}

func main() {
	log := logger.New(logger.WithService("presave"))

	if err := run(log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg, err := config.Load[serverConfig]()
	if err != nil {
		return err
	}

	codec, err := statetoken.New(srvCfg.StateSecret, statetoken.WithTTL(srvCfg.StateTTL))
	if err != nil {
		return err
	}

	pgCfg, err := config.Load[pg.Config]()
	if err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
		return err
	}

	redisCfg, err := config.Load[redisconn.Config]()
	if err != nil {
		return err
	}
	rdb, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	spotifyCfg, err := config.Load[presave.SpotifyConfig]()
	if err != nil {
		return err
	}
	spotify, err := presave.NewSpotifyAdapter(spotifyCfg)
	if err != nil {
		return err
	}

	store := presave.NewPostgresStore(pool)
	guard := singleuse.New(rdb, "presave:state", srvCfg.StateTTL)

	svc, err := presave.NewService(codec, spotify, guard, store, log)
	if err != nil {
		return err
	}

	moduleCfg, err := config.Load[presavemodule.Config]()
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/presave", presavemodule.Router(svc, store, moduleCfg, log))

	srv := &http.Server{
		Addr:              srvCfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srvCfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
