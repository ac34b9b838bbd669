package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"perfpredict/internal/auth"
	"perfpredict/internal/config"
	"perfpredict/internal/db"
	internalhttp "perfpredict/internal/http"
	"perfpredict/internal/ml"
	"perfpredict/internal/oidc"
	"perfpredict/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("refusing to start without a signing secret")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()

	var google internalhttp.AssertionVerifier
	if cfg.GoogleClientID == "" {
		log.Info().Msg("GOOGLE_CLIENT_ID not set, federated login disabled")
	} else {
		verifier, err := oidc.NewVerifier(ctx, cfg.GoogleIssuerURL, cfg.GoogleClientID)
		if err != nil {
			log.Error().Err(err).Msg("oidc provider discovery failed, federated login disabled")
		} else {
			google = verifier
		}
	}

	store := repository.NewStore(pool)
	predictor := ml.NewClient(cfg.MLServiceURL, cfg.MLTimeout)
	server := internalhttp.NewServer(cfg, store, tokens, google, predictor)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("perfpredict listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
