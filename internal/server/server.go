// Package server exposes the dashboard view layer and the action controller over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lending_go/internal/action"
	"lending_go/internal/domain"
	"lending_go/internal/view"
)

const requestLimit = 1 << 16

// Reader serves the cached query endpoints.
type Reader interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	Stats(ctx context.Context) (*domain.LendingStats, error)
	Position(ctx context.Context, address string) (*domain.LendingPosition, error)
}

// RiskSource serves the uncached risk endpoints.
type RiskSource interface {
	PositionHealth(ctx context.Context, address string) (*domain.PositionHealth, error)
	AtRiskPositions(ctx context.Context) ([]domain.LendingPosition, error)
	LiquidatablePositions(ctx context.Context) ([]domain.LendingPosition, error)
}

// LiveSource returns the current push snapshot.
type LiveSource interface {
	Snapshot() domain.LiveSnapshot
}

// ActionLog lists journaled submissions.
type ActionLog interface {
	RecentActions(ctx context.Context, limit int) ([]domain.ActionRecord, error)
}

// Deps wires the router. Risk, Actions, Inbox and Gatherer are optional.
type Deps struct {
	Reader     Reader
	Risk       RiskSource
	Live       LiveSource
	Actions    ActionLog
	Controller *action.Controller
	Dialog     *action.Dialog
	Wallet     action.Wallet
	Inbox      *action.Inbox
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
}

type handlers struct {
	Deps
	logger *slog.Logger
}

// NewRouter builds the chi router.
func NewRouter(d Deps) http.Handler {
	h := &handlers{Deps: d, logger: d.Logger.With("component", "server")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/healthz", h.health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/view", func(r chi.Router) {
		r.Get("/markets", h.markets)
		r.Get("/markets/{id}/borrow-rate", h.borrowRate)
		r.Get("/stats", h.stats)
		r.Get("/position", h.position)
		r.Get("/health", h.positionHealth)
		r.Get("/risk", h.risk)
		r.Get("/live", h.live)
		r.Get("/actions", h.actions)
		r.Get("/states", h.states)
		r.Get("/notifications", h.notifications)
	})

	r.Post("/actions/{kind}", h.submit)

	r.Route("/dialog", func(r chi.Router) {
		r.Get("/", h.dialogGet)
		r.Put("/", h.dialogOpen)
		r.Delete("/", h.dialogCancel)
		r.Put("/amount", h.dialogAmount)
		r.Post("/submit", h.dialogSubmit)
	})
	return r
}

// NewHTTPServer wraps the router with the usual timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) markets(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Reader.Markets(r.Context())
	if err != nil {
		h.upstreamError(w, "markets", err)
		return
	}
	writeJSON(w, http.StatusOK, view.Markets(ms))
}

func (h *handlers) borrowRate(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Reader.Markets(r.Context())
	if err != nil {
		h.upstreamError(w, "markets", err)
		return
	}
	m := domain.FindMarket(ms, chi.URLParam(r, "id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "Market not found")
		return
	}
	mode := domain.RateMode(r.URL.Query().Get("mode"))
	if mode != "" && !mode.Valid() {
		writeError(w, http.StatusBadRequest, "Rate mode must be variable or stable")
		return
	}
	if mode == "" {
		mode = domain.RateVariable
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"marketId": m.ID,
		"mode":     string(mode),
		"rate":     view.BorrowRatePreview(*m, mode),
	})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Reader.Stats(r.Context())
	if err != nil {
		h.upstreamError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, view.Stats(*st))
}

func (h *handlers) position(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.walletAddress(w)
	if !ok {
		return
	}
	p, err := h.Reader.Position(r.Context(), addr)
	if err != nil {
		h.upstreamError(w, "position", err)
		return
	}
	ms, err := h.Reader.Markets(r.Context())
	if err != nil {
		// Decimals fall back to 18 without the market list
		h.logger.Warn("markets unavailable for position view", slog.Any("error", err))
	}
	writeJSON(w, http.StatusOK, view.Position(*p, ms))
}

func (h *handlers) positionHealth(w http.ResponseWriter, r *http.Request) {
	if h.Risk == nil {
		writeError(w, http.StatusNotImplemented, "Risk endpoints are not configured")
		return
	}
	addr, ok := h.walletAddress(w)
	if !ok {
		return
	}
	ph, err := h.Risk.PositionHealth(r.Context(), addr)
	if err != nil {
		h.upstreamError(w, "position_health", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":        ph.UserAddress,
		"healthFactor":   domain.DisplayHealthFactor(ph.HealthFactor),
		"healthColor":    domain.ColorBucket(ph.HealthFactor),
		"healthStatus":   ph.HealthStatus.Label(),
		"borrowCapacity": ph.BorrowCapacity,
	})
}

type riskRow struct {
	Address      string `json:"address"`
	HealthFactor string `json:"healthFactor"`
	HealthStatus string `json:"healthStatus"`
	Borrowed     string `json:"borrowed"`
}

func (h *handlers) risk(w http.ResponseWriter, r *http.Request) {
	if h.Risk == nil {
		writeError(w, http.StatusNotImplemented, "Risk endpoints are not configured")
		return
	}
	atRisk, err := h.Risk.AtRiskPositions(r.Context())
	if err != nil {
		h.upstreamError(w, "at_risk", err)
		return
	}
	liquidatable, err := h.Risk.LiquidatablePositions(r.Context())
	if err != nil {
		h.upstreamError(w, "liquidatable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]riskRow{
		"atRisk":       riskRows(atRisk),
		"liquidatable": riskRows(liquidatable),
	})
}

func riskRows(ps []domain.LendingPosition) []riskRow {
	out := make([]riskRow, 0, len(ps))
	for _, p := range ps {
		v := view.Position(p, nil)
		out = append(out, riskRow{
			Address:      p.UserAddress,
			HealthFactor: v.HealthFactor,
			HealthStatus: v.HealthStatus,
			Borrowed:     v.Borrowed,
		})
	}
	return out
}

func (h *handlers) live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view.Live(h.Live.Snapshot()))
}

func (h *handlers) actions(w http.ResponseWriter, r *http.Request) {
	if h.Actions == nil {
		writeJSON(w, http.StatusOK, []domain.ActionRecord{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := h.Actions.RecentActions(r.Context(), limit)
	if err != nil {
		h.logger.Error("journal read failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to read action history")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) states(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Controller.States())
}

func (h *handlers) notifications(w http.ResponseWriter, r *http.Request) {
	if h.Inbox == nil {
		writeJSON(w, http.StatusOK, []action.Notification{})
		return
	}
	writeJSON(w, http.StatusOK, h.Inbox.Recent())
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseActionKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var pa domain.PendingAction
	if err := decodeBody(r, &pa); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pa.Kind = kind

	res, err := h.Controller.Submit(r.Context(), pa)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dialogState struct {
	Open    bool                 `json:"open"`
	Pending domain.PendingAction `json:"pending"`
	CanSend bool                 `json:"canSubmit"`
}

func (h *handlers) dialogGet(w http.ResponseWriter, r *http.Request) {
	pa, open := h.Dialog.Pending()
	st := dialogState{Open: open, Pending: pa}
	if open {
		if ms, err := h.Reader.Markets(r.Context()); err == nil {
			st.CanSend = action.CanSubmit(h.Controller, pa, ms)
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) dialogOpen(w http.ResponseWriter, r *http.Request) {
	var pa domain.PendingAction
	if err := decodeBody(r, &pa); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := domain.ParseActionKind(string(pa.Kind)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Dialog.Open(pa)
	h.dialogGet(w, r)
}

func (h *handlers) dialogAmount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.Dialog.SetAmount(body.Amount) {
		writeError(w, http.StatusNotFound, action.ErrDialogClosed.Error())
		return
	}
	h.dialogGet(w, r)
}

func (h *handlers) dialogCancel(w http.ResponseWriter, r *http.Request) {
	h.Dialog.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) dialogSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := h.Dialog.Submit(r.Context(), h.Controller)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) walletAddress(w http.ResponseWriter) (string, bool) {
	if h.Wallet == nil || !h.Wallet.Connected() {
		writeError(w, http.StatusPreconditionFailed, "Please connect your wallet")
		return "", false
	}
	return h.Wallet.Address(), true
}

func (h *handlers) upstreamError(w http.ResponseWriter, what string, err error) {
	h.logger.Warn("upstream read failed", slog.String("resource", what), slog.Any("error", err))
	writeError(w, http.StatusBadGateway, "Failed to load "+what)
}

func writeActionError(w http.ResponseWriter, err error) {
	var ae *action.Error
	switch {
	case errors.Is(err, action.ErrDialogClosed):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ae):
		status := http.StatusBadGateway
		switch ae.Kind {
		case action.ErrInvalidAmount, action.ErrInvalidInput:
			status = http.StatusBadRequest
		case action.ErrPreconditionFailed:
			status = http.StatusPreconditionFailed
		}
		writeError(w, status, ae.Message)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, requestLimit))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("missing request body")
	}
	return json.Unmarshal(data, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
