package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/agent"
	"github.com/DAAIDev/AgentBoxDev/internal/blob"
	"github.com/DAAIDev/AgentBoxDev/internal/config"
	"github.com/DAAIDev/AgentBoxDev/internal/google"
	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/internal/httpapi"
	"github.com/DAAIDev/AgentBoxDev/internal/llm"
	"github.com/DAAIDev/AgentBoxDev/internal/mail"
	"github.com/DAAIDev/AgentBoxDev/internal/server"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/internal/tools"
)

// app is the wired gateway. blobs and agent are nil when their
// integrations are not configured.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	registry *server.Server
	checker  *health.Checker
	blobs    *blob.Store
	agent    *agent.Loop
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, store: st}

	a.checker = health.NewChecker(st, logger.Named("health"),
		health.WithTimeout(cfg.HealthProbeTimeout),
		health.WithDegradedThreshold(cfg.HealthDegradedThreshold),
	)
	deps := tools.Deps{
		Store:      st,
		Health:     a.checker,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger.Named("tools"),
	}

	if cfg.MailConfigured() {
		sender, err := mail.NewSender(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.GmailUser,
			Password: cfg.GmailAppPassword,
			From:     cfg.Sender(),
		}, logger.Named("mail"))
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Mailer = sender
	} else {
		logger.Warn("outbound email not configured; send tools will fail")
	}

	if cfg.GoogleConfigured() {
		client, err := google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
		}, logger.Named("google"))
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Google = client
	} else {
		logger.Warn("Google OAuth not configured; calendar and mailbox tools will fail")
	}

	if cfg.StorageConfigured() {
		blobs, err := blob.New(blob.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
			PublicURL: cfg.StoragePublicURL,
		}, logger.Named("blob"))
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			logger.Warn("could not verify storage bucket", zap.Error(err))
		}
		a.blobs = blobs
		deps.Blobs = blobs
	}

	a.registry = server.New(logger.Named("registry"))
	if err := tools.RegisterAll(a.registry, deps); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	logger.Info("registered tools", zap.Int("count", len(a.registry.Names())))

	if cfg.LLMConfigured() {
		completer, err := llm.New(llm.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			MaxTokens: cfg.AnthropicMaxTokens,
		}, logger.Named("llm"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.agent = agent.New(completer, a.registry, logger.Named("agent"), agent.WithMaxRounds(cfg.AgentMaxRounds))
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set; /chat is disabled")
	}
	return a, nil
}

// httpDeps hands the configured collaborators to the transport, leaving
// unconfigured ones as untyped nil.
func (a *app) httpDeps() httpapi.Deps {
	deps := httpapi.Deps{
		Tools:     a.registry,
		MCP:       a.registry.MCPServer(),
		Documents: a.store,
		Logger:    a.logger.Named("http"),
	}
	if a.agent != nil {
		deps.Agent = a.agent
	}
	if a.blobs != nil {
		deps.Uploader = a.blobs
	}
	return deps
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}
