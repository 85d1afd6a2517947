package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Maciekds1981/kolorowanki/internal/http/handlers"
	httpapi "github.com/Maciekds1981/kolorowanki/internal/http/httpapi"
	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/infra/geoip"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
	"github.com/Maciekds1981/kolorowanki/internal/providers/image"
	"github.com/Maciekds1981/kolorowanki/internal/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	infra.LoadDotEnv()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if cfg.IsDevelopment() && len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, sessions must supply their own key")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, session.NewStore(cfg.SessionTTL))
	app.ImageLimiter = image.LimiterPerMinute(cfg.ImageRatePerMin)

	router := httpapi.NewRouter(app, httpapi.Options{Logger: logger, CountryLookup: lookup})
	server := infra.NewHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
