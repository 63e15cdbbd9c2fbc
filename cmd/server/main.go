package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/api"
	"mailtriage/internal/config"
	"mailtriage/internal/gmail"
	"mailtriage/internal/lock"
	"mailtriage/internal/memory"
	"mailtriage/internal/repository"
	"mailtriage/internal/service/triage"
	"mailtriage/internal/summarizer"
	"mailtriage/pkg/db"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/mq"
	redisclient "mailtriage/pkg/redis"
)

var (
	gmailAuth  = flag.Bool("gmail-auth", false, "run the Gmail OAuth consent flow, save the token and exit")
	issueToken = flag.String("issue-token", "", "print a 24h API token for the given subject and exit")
)

func main() {
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.NewLogger(cfg.Debug)
	defer logger.Sync()

	ctx := context.Background()

	if *gmailAuth {
		oauthCfg, err := gmail.OAuthConfig(cfg.Gmail.CredentialsFile)
		if err != nil {
			logger.Fatal("Gmail credentials unusable", zap.Error(err))
		}
		if err := gmail.Authorize(ctx, oauthCfg, cfg.Gmail.TokenFile, os.Stdin, os.Stdout); err != nil {
			logger.Fatal("Gmail authorization failed", zap.Error(err))
		}
		logger.Info("Gmail token saved", zap.String("path", cfg.Gmail.TokenFile))
		return
	}

	if *issueToken != "" {
		if cfg.JWT.Secret == "" {
			logger.Fatal("jwt.secret is not configured")
		}
		token, err := api.GenerateToken(*issueToken, cfg.JWT.Secret, 24*time.Hour)
		if err != nil {
			logger.Fatal("failed to sign token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	emailRepo := repository.NewEmailRepository(dbConn)
	if err := emailRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	// 3. Init per-email lock (Redis when configured)
	var locker lock.Locker = lock.NewLocal()
	rdb, err := redisclient.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process lock", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.Triage.LockTTL, logger)
	}

	// 4. Init mail source and summarizer
	mailClient, err := gmail.NewClient(ctx, cfg.Gmail, logger)
	if err != nil {
		logger.Fatal("Gmail client initialization failed", zap.Error(err))
	}

	sum, err := summarizer.New(ctx, cfg.Summarizer, logger)
	if err != nil {
		logger.Fatal("summarizer initialization failed", zap.Error(err))
	}

	// 5. Init triage service
	conversation := memory.NewLog()
	var (
		opts   []triage.Option
		events api.Connectivity
	)
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			logger.Warn("MQ unavailable, email.important events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			opts = append(opts, triage.WithPublisher(publisher))
			events = publisher
		}
	}
	triageService := triage.NewService(mailClient, sum, emailRepo, conversation, locker, logger, opts...)

	// 6. Init handlers and router
	triageHandler := api.NewTriageHandler(triageService, conversation, cfg.Triage.DefaultMaxResults, logger)
	historyHandler := api.NewHistoryHandler(emailRepo, conversation, logger)
	router := api.NewRouter(triageHandler, historyHandler, dbConn, events, cfg.JWT.Secret, logger)

	// 7. Run server
	logger.Info("Starting mail triage server",
		zap.String("port", cfg.Server.Port),
		zap.String("summarizer", cfg.Summarizer.Backend),
		zap.Bool("auth", cfg.JWT.Secret != ""),
	)
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
