package execution

import (
	"fmt"
	"log/slog"
	"os"

	"lending_go/internal/infra"
	"lending_go/internal/infra/lendingapi"
)

// Mode represents the execution mode
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeDemo  Mode = "DEMO"
	ModeReal  Mode = "REAL"
)

// ConfirmRealEnv must be "true" before REAL mode starts.
const ConfirmRealEnv = "CONFIRM_REAL_MONEY"

// Factory creates the Gateway for the configured mode.
type Factory struct {
	config  *infra.Config
	markets MarketSource
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewFactory creates a new factory. markets feeds the paper simulator.
func NewFactory(cfg *infra.Config, markets MarketSource, metrics *infra.Metrics, logger *slog.Logger) *Factory {
	return &Factory{config: cfg, markets: markets, metrics: metrics, logger: logger}
}

// CreateGateway returns the Gateway for the configured mode, wrapped with request logging.
func (f *Factory) CreateGateway() (Gateway, error) {
	mode := Mode(f.config.Mode)
	f.logger.Info("Initializing Execution Gateway", "mode", mode)

	ua := infra.UserAgent(f.config.App.Version)

	var gw Gateway
	switch mode {
	case ModePaper:
		gw = NewPaperGateway(f.markets)

	case ModeDemo:
		f.logger.Info("🔒 Connecting to lending DEMO API", "url", f.config.API.DemoBaseURL)
		gw = lendingapi.New(lendingapi.ConfigFrom(f.config.API, f.config.API.DemoBaseURL, ua), f.metrics, f.logger)

	case ModeReal:
		// SAFETY LATCH
		if os.Getenv(ConfirmRealEnv) != "true" {
			return nil, fmt.Errorf("SAFETY_GUARD: REAL mode requires '%s=true' environment variable", ConfirmRealEnv)
		}
		f.logger.Warn("🚨🚨🚨 Connecting to lending REAL API 🚨🚨🚨", "url", f.config.API.BaseURL)
		gw = lendingapi.New(lendingapi.ConfigFrom(f.config.API, f.config.API.BaseURL, ua), f.metrics, f.logger)

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}

	return NewLoggingGateway(gw, string(mode), f.logger), nil
}
