// Command gateway starts one call session's streaming data plane: it reads
// the ACS ingress/egress and provider WebSocket URLs from the environment,
// wires the pipeline, and runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/config"
	"github.com/rapidaai/translate-gateway/internal/session"
)

func main() {
	cfg := config.FromEnv(os.LookupEnv)

	level := zapcore.InfoLevel
	if cfg.DebugWire {
		level = zapcore.DebugLevel
	}
	logger, err := commons.NewApplicationLogger(level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionID := os.Getenv("SESSION_ID")
	if sessionID == "" {
		sessionID = "gateway"
	}
	provider := os.Getenv("TRANSLATION_PROVIDER")

	s := session.New(sessionID, cfg, logger, cfg.ACSIngressURL, cfg.ProviderURL, cfg.ACSEgressURL, provider)
	defer s.Stop()

	logger.Infow("gateway starting", "session_id", sessionID, "provider", provider)
	if err := s.Start(ctx); err != nil {
		logger.Errorw("gateway stopped with error", "error", err)
	}
}
