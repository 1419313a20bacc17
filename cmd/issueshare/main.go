package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tuannvm/jira-issue-share/internal/agents"
	"github.com/tuannvm/jira-issue-share/internal/common"
	"github.com/tuannvm/jira-issue-share/internal/config"
	"github.com/tuannvm/jira-issue-share/internal/httpapi"
	"github.com/tuannvm/jira-issue-share/internal/interpret"
	"github.com/tuannvm/jira-issue-share/internal/jira"
	"github.com/tuannvm/jira-issue-share/internal/llm"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/mailer"
	"github.com/tuannvm/jira-issue-share/internal/share"
)

func main() {
	cfg := config.NewConfig()
	if err := log.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	svc, err := buildService(cfg)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, svc); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Infof("Server shutdown complete")
}

func buildService(cfg *config.Config) (*share.Service, error) {
	var llmClient llm.LLMClient
	if cfg.InterpreterMode == config.InterpreterLLM && !cfg.ForceStub {
		client, err := llm.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		llmClient = client
	}

	identity, err := jira.NewIdentityClient(cfg)
	if err != nil {
		return nil, err
	}

	normalizer := interpret.NewNormalizer(interpret.NewInterpreter(cfg, llmClient))
	return share.NewService(normalizer, jira.NewClient(cfg), mailer.NewGatewayFromConfig(cfg), identity), nil
}

func run(ctx context.Context, cfg *config.Config, svc *share.Service) error {
	a2aServer, err := common.SetupServer(common.SetupServerOptions{
		AgentName:    cfg.AgentName,
		AgentVersion: cfg.AgentVersion,
		AgentURL:     cfg.AgentURL,
		AuthType:     cfg.AuthType,
		JWTSecret:    cfg.JWTSecret,
		APIKey:       cfg.APIKey,
		Processor:    agents.NewIssueShareAgent(svc),
		Skills:       agents.Skills(),
	})
	if err != nil {
		return err
	}

	authProvider, err := common.NewAuthProvider(cfg.AuthType, cfg.JWTSecret, cfg.APIKey)
	if err != nil {
		return err
	}
	apiServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.APIPort),
		Handler:           httpapi.NewRouter(svc, authProvider, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return common.StartServer(gctx, a2aServer, cfg.ServerHost, cfg.ServerPort)
	})
	g.Go(func() error {
		log.Infof("Starting resolver API on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("resolver API failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
