// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-promo-bot/internal/application"
	"telegram-promo-bot/internal/config"
	tele "telegram-promo-bot/internal/infra/adapters/telegram"
	"telegram-promo-bot/internal/infra/api"
	bc "telegram-promo-bot/internal/infra/barcode"
	pg "telegram-promo-bot/internal/infra/db/postgres"
	"telegram-promo-bot/internal/infra/logging"
	"telegram-promo-bot/internal/infra/metrics"
	red "telegram-promo-bot/internal/infra/redis"
	"telegram-promo-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	codeRepo := pg.NewPromoCodeRepo(pool)
	modeRepo := red.NewOperatorModeRepo(redisClient, cfg.Redis.ModeTTL)

	// ---- Membership oracle ----
	membership, err := tele.NewChannelMembershipChecker(cfg.Bot.Token, cfg.Bot.Channel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("membership checker")
	}

	// ---- Use cases ----
	issueUC := usecase.NewIssuanceUseCase(codeRepo, membership, logger)
	redeemUC := usecase.NewRedemptionUseCase(codeRepo, membership, logger)
	operatorUC := usecase.NewOperatorUseCase(codeRepo, modeRepo, membership, cfg.Bot.OperatorIDs, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(issueUC, redeemUC, operatorUC)

	// ---- Telegram ----
	renderer := bc.NewCode128Renderer()
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, renderer, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP server ----
	adminSrv := api.NewServer(codeRepo, cfg.Admin.APIKey, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminSrv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	botAdapter.StopPolling()
	_ = server.Shutdown(context.Background())
	cancel()
}
