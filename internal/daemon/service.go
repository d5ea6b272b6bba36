// Package daemon provides the long-running forecast service: it polls the
// ledger, keeps the rolling forecast fresh and serves it over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/store"
)

// LedgerSource loads an owner's projects, settings and plans.
type LedgerSource interface {
	LoadLedger(ctx context.Context, owner string) (*store.Ledger, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Owner        string
	Horizon      int
	Interval     time.Duration
	RateRefresh  time.Duration // zero disables refreshing from RateSource
	Addr         string
	EventsBuffer int
	Now          func() time.Time
}

// Snapshot is a compact forecast state for status/event payloads.
type Snapshot struct {
	At               time.Time       `json:"at"`
	Start            string          `json:"start,omitempty"`
	Months           int             `json:"months"`
	Projects         int             `json:"projects"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	AverageProfit    decimal.Decimal `json:"average_monthly_profit"`
	ProfitableMonths int             `json:"profitable_months"`
	BreakEvenMonth   string          `json:"break_even_month,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Projects         int             `json:"projects"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	ProfitableMonths int             `json:"profitable_months"`
	BreakEvenMoved   bool            `json:"break_even_moved,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Projects == 0 &&
		d.TotalRevenue.IsZero() &&
		d.TotalExpenses.IsZero() &&
		d.TotalProfit.IsZero() &&
		d.ProfitableMonths == 0 &&
		!d.BreakEvenMoved
}

// Event is emitted whenever the forecast snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Owner           string    `json:"owner"`
	Horizon         int       `json:"horizon_months"`
	BaseCurrency    string    `json:"base_currency"`
	RatesUpdatedAt  time.Time `json:"rates_updated_at,omitzero"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	ledger LedgerSource
	engine *forecast.Engine
	rates  currency.Source

	mu             sync.RWMutex
	startedAt      time.Time
	lastPollAt     time.Time
	ratesUpdatedAt time.Time
	pollCount      int64
	lastErr        error
	hasSnapshot    bool
	snapshot       Snapshot
	current        *store.Ledger
	forecast       model.RollingForecast
	nextEventID    int64
	events         []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service reading from ledger and forecasting with
// engine. rates may be nil.
func New(cfg Config, ledger LedgerSource, engine *forecast.Engine, rates currency.Source) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = forecast.DefaultHorizon
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		ledger:    ledger,
		engine:    engine,
		rates:     rates,
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/forecast", s.handleForecast)
	mux.HandleFunc("/v1/forecast/month", s.handleMonth)
	mux.HandleFunc("/v1/compare", s.handleCompare)
	mux.HandleFunc("/v1/cashflow", s.handleCashFlow)
	mux.HandleFunc("/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	if s.rates != nil && s.cfg.RateRefresh > 0 {
		s.refreshRates(ctx)
	}
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var rateTick <-chan time.Time
	if s.rates != nil && s.cfg.RateRefresh > 0 {
		rt := time.NewTicker(s.cfg.RateRefresh)
		defer rt.Stop()
		rateTick = rt.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case <-rateTick:
			s.refreshRates(ctx)
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) refreshRates(ctx context.Context) {
	if err := s.engine.Normalizer().Refresh(ctx, s.rates); err != nil {
		log.Printf("clickoflow daemon rate refresh error: %v", err)
		return
	}
	s.mu.Lock()
	s.ratesUpdatedAt = s.cfg.Now()
	s.mu.Unlock()
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.cfg.Now()
	ledger, rf, err := s.compute(ctx, model.MonthOf(now))
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("clickoflow daemon poll error: %v", err)
		return
	}
	snap := snapshotFromForecast(rf, len(ledger.Projects), now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.current = ledger
	s.forecast = rf
	s.lastPollAt = now
	s.pollCount++
	s.lastErr = nil

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "forecast_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) compute(ctx context.Context, start model.Month) (*store.Ledger, model.RollingForecast, error) {
	ledger, err := s.ledger.LoadLedger(ctx, s.cfg.Owner)
	if err != nil {
		return nil, model.RollingForecast{}, err
	}
	plans := forecast.NewPlanBook(ledger.Settings, ledger.Plans)
	rf, err := s.engine.GenerateForecast(ledger.Projects, plans, start, s.cfg.Horizon)
	if err != nil {
		return nil, model.RollingForecast{}, err
	}
	return ledger, rf, nil
}

func snapshotFromForecast(rf model.RollingForecast, projects int, at time.Time) Snapshot {
	snap := Snapshot{
		At:               at,
		Start:            rf.Start.String(),
		Months:           rf.Summary.Months,
		Projects:         projects,
		TotalRevenue:     rf.Summary.TotalRevenue,
		TotalExpenses:    rf.Summary.TotalExpenses,
		TotalProfit:      rf.Summary.TotalProfit,
		AverageProfit:    rf.Summary.AverageProfit,
		ProfitableMonths: rf.Summary.ProfitableMonths,
	}
	if rf.Summary.BreakEvenMonth != nil {
		snap.BreakEvenMonth = rf.Summary.BreakEvenMonth.String()
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Projects:         curr.Projects - prev.Projects,
		TotalRevenue:     curr.TotalRevenue.Sub(prev.TotalRevenue),
		TotalExpenses:    curr.TotalExpenses.Sub(prev.TotalExpenses),
		TotalProfit:      curr.TotalProfit.Sub(prev.TotalProfit),
		ProfitableMonths: curr.ProfitableMonths - prev.ProfitableMonths,
		BreakEvenMoved:   curr.BreakEvenMonth != prev.BreakEvenMonth,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Owner:           s.cfg.Owner,
		Horizon:         s.cfg.Horizon,
		BaseCurrency:    s.engine.Normalizer().Base(),
		RatesUpdatedAt:  s.ratesUpdatedAt,
		Summary:         s.snapshot,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// state returns the last good ledger and forecast, or the poll error when
// there is none yet.
func (s *Service) state() (*store.Ledger, model.RollingForecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSnapshot {
		if s.lastErr != nil {
			return nil, model.RollingForecast{}, s.lastErr
		}
		return nil, model.RollingForecast{}, errNotReady
	}
	return s.current, s.forecast, nil
}
