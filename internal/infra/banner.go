package infra

import (
	"fmt"
	"io"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with mode-specific warnings
func PrintBanner(w io.Writer, cfg *Config) {
	mode := strings.ToUpper(cfg.Mode)

	color := ColorGreen
	modeDesc := "UNKNOWN"
	switch mode {
	case "REAL":
		color = ColorRed
		modeDesc = "LIVE PROTOCOL (REAL FUNDS)"
	case "DEMO":
		color = ColorYellow
		modeDesc = "DEMO API (TEST FUNDS)"
	case "PAPER":
		color = ColorCyan
		modeDesc = "LOCAL SIMULATION"
	}

	wallet := cfg.Wallet.Address
	if wallet == "" {
		wallet = "(not connected)"
	}

	line := func(format string, args ...any) {
		fmt.Fprintf(w, "%s"+format+"%s\n", append(append([]any{color}, args...), ColorReset)...)
	}

	fmt.Fprintln(w)
	line("###########################################################")
	line("#                                                         #")
	line("#               🏦 Lending Dashboard Core                 #")
	line("#                                                         #")
	line("#   MODE:    %-44s #", mode)
	line("#   TYPE:    %-44s #", modeDesc)
	line("#   WALLET:  %-44s #", wallet)
	line("#   VERSION: %-44s #", cfg.App.Version)
	line("#                                                         #")
	if mode == "REAL" {
		fmt.Fprintf(w, "%s#   ⚠️  ACTIONS MOVE REAL FUNDS ON THE PROTOCOL  ⚠️       #%s\n", ColorRed, ColorReset)
	}
	line("###########################################################")
	fmt.Fprintln(w)
}
