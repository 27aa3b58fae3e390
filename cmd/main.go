package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/meme-madness/meme-madness/brackets"
	"github.com/meme-madness/meme-madness/config"
	"github.com/meme-madness/meme-madness/db"
	"github.com/meme-madness/meme-madness/handlers"
	"github.com/meme-madness/meme-madness/repositories"
	api "github.com/meme-madness/meme-madness/routes"
	"github.com/meme-madness/meme-madness/services"
	"github.com/meme-madness/meme-madness/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	memeRepo := repositories.NewPostgresMemeRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchupRepo := repositories.NewPostgresMatchupRepository(dbConn)
	voteRepo := repositories.NewPostgresVoteRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, memberRepo, memeRepo, roundRepo, matchupRepo, logger)
	memberService := services.NewMemberService(dbConn, tournamentRepo, memberRepo, logger)
	memeService := services.NewMemeService(tournamentRepo, memberRepo, memeRepo, roundRepo, matchupRepo, uploader, logger)
	bracketService := services.NewBracketService(
		dbConn, tournamentRepo, memberRepo, memeRepo, roundRepo, matchupRepo, wsHub,
		func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
		logger,
	)
	votingService := services.NewVotingService(dbConn, matchupRepo, roundRepo, voteRepo, memeRepo, memberRepo, wsHub, logger)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, memberService)
	memeHandler := handlers.NewMemeHandler(memeService)
	votingHandler := handlers.NewVotingHandler(votingService)
	adminHandler := handlers.NewAdminHandler(bracketService, votingService, tournamentService, memberService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, authHandler, tournamentHandler, memeHandler, votingHandler, adminHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
