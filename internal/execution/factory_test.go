package execution

import (
	"io"
	"log/slog"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending_go/internal/infra"
	"lending_go/pkg/quant"
)

func mustBase(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := quant.ParseBaseUnits(s)
	require.NoError(t, err)
	return v
}

func newFactory(mode string) *Factory {
	cfg := infra.DefaultConfig()
	cfg.Mode = mode
	cfg.API.BaseURL = "http://127.0.0.1:1"
	cfg.API.DemoBaseURL = "http://127.0.0.1:2"
	return NewFactory(cfg, testMarkets(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFactory_Paper(t *testing.T) {
	gw, err := newFactory("PAPER").CreateGateway()
	require.NoError(t, err)
	lg, ok := gw.(*LoggingGateway)
	require.True(t, ok)
	_, ok = lg.next.(*PaperGateway)
	assert.True(t, ok)
}

func TestFactory_RealRequiresConfirmation(t *testing.T) {
	t.Setenv(ConfirmRealEnv, "")
	_, err := newFactory("REAL").CreateGateway()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY_GUARD")

	t.Setenv(ConfirmRealEnv, "true")
	gw, err := newFactory("REAL").CreateGateway()
	require.NoError(t, err)
	assert.NoError(t, gw.Close())
}

func TestFactory_UnknownMode(t *testing.T) {
	_, err := newFactory("YOLO").CreateGateway()
	assert.Error(t, err)
}

var _ Gateway = (*PaperGateway)(nil)
var _ Gateway = (*LoggingGateway)(nil)
