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

	"github.com/joho/godotenv"

	"github.com/vedpatil1345/codetalk/internal/config"
	"github.com/vedpatil1345/codetalk/internal/handler"
	"github.com/vedpatil1345/codetalk/internal/provider/gemini"
	"github.com/vedpatil1345/codetalk/internal/service/ai"
	"github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/internal/service/history"
	"github.com/vedpatil1345/codetalk/internal/service/mail"
	"github.com/vedpatil1345/codetalk/internal/service/render"
	"github.com/vedpatil1345/codetalk/internal/service/vision"
	"github.com/vedpatil1345/codetalk/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()})))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		slog.Error("failed to initialize AI service", "provider", cfg.AI.Provider, "error", err)
		os.Exit(1)
	}
	slog.Info("AI service ready", "provider", cfg.AI.Provider, "model", cfg.AI.Model, "streaming", aiService.StreamingEnabled())

	visionClient := gemini.New(gemini.Config{
		APIKey:  cfg.Vision.APIKey,
		BaseURL: cfg.Vision.BaseURL,
		Model:   cfg.Vision.Model,
	})
	if !visionClient.Configured() {
		slog.Warn("GEMINI_API_KEY not set, image to code will fail")
	}

	if !cfg.Mail.Enabled() {
		slog.Warn("EmailJS not configured, contact form disabled")
	}
	mailer := mail.NewSender(mail.Config{
		ServiceID:  cfg.Mail.ServiceID,
		TemplateID: cfg.Mail.TemplateID,
		PublicKey:  cfg.Mail.PublicKey,
		BaseURL:    cfg.Mail.BaseURL,
	})

	identity, closeIdentity, err := newIdentity(cfg.Auth, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize identity provider", "provider", cfg.Auth.Provider, "error", err)
		os.Exit(1)
	}
	defer closeIdentity()

	histories, err := history.OpenRegistry(cfg.Storage.HistoryPath)
	if err != nil {
		slog.Error("failed to open chat history", "path", cfg.Storage.HistoryPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := histories.Shutdown(); err != nil {
			slog.Warn("failed to close chat history", "error", err)
		}
	}()

	router := handler.NewRouter(handler.Dependencies{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CookieSecure:   cfg.Server.CookieSecure,
		Streamer:       aiService,
		Converter:      vision.NewService(visionClient),
		Mailer:         mailer,
		Renderer:       render.New(),
		Identity:       identity,
		Sessions:       auth.NewSessions(),
		Histories:      histories,
		Pages:          web.SPAHandler(),
	})

	startServer(ctx, cfg.Server, router)
}

func newIdentity(authCfg config.AuthConfig, storage config.StorageConfig) (auth.Provider, func(), error) {
	if authCfg.Provider == config.AuthFirebase {
		if authCfg.FirebaseAPIKey == "" {
			slog.Warn("FIREBASE_API_KEY not set, sign in will fail")
		}
		return auth.NewFirebaseProvider(authCfg.FirebaseAPIKey, authCfg.FirebaseBaseURL, nil), func() {}, nil
	}

	local, err := auth.NewLocalProvider(storage.AccountsPath)
	if err != nil {
		return nil, nil, err
	}
	return local, func() {
		if err := local.Close(); err != nil {
			slog.Warn("failed to close account store", "error", err)
		}
	}, nil
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("CodeTalk backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "error", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
