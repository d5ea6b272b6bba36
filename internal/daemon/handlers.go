package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
)

var errNotReady = errors.New("forecast not computed yet")

type errorBody struct {
	Error string `json:"error"`
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, forecast.ErrSettingsNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidMonthFormat),
		errors.Is(err, currency.ErrInvalidCurrency),
		errors.Is(err, forecast.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, errNotReady):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorBody{Error: err.Error()})
}

// monthParam reads ?month=, defaulting to the current month.
func (s *Service) monthParam(r *http.Request) (model.Month, error) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return model.MonthOf(s.cfg.Now()), nil
	}
	return model.ParseMonth(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleForecast(w http.ResponseWriter, _ *http.Request) {
	_, rf, err := s.state()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rf)
}

func (s *Service) handleMonth(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ledger, rf, err := s.state()
	if err != nil {
		writeError(w, err)
		return
	}
	for _, mf := range rf.Months {
		if mf.Month == m {
			writeJSON(w, http.StatusOK, mf)
			return
		}
	}

	// Outside the cached horizon.
	plan, err := forecast.NewPlanBook(ledger.Settings, ledger.Plans).PlanFor(m)
	if err != nil {
		writeError(w, err)
		return
	}
	mf, err := s.engine.ForecastMonth(m, ledger.Projects, plan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mf)
}

func (s *Service) handleCompare(w http.ResponseWriter, _ *http.Request) {
	_, rf, err := s.state()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast.Compare(rf, forecast.ComparisonMonths))
}

func (s *Service) handleCashFlow(w http.ResponseWriter, _ *http.Request) {
	ledger, rf, err := s.state()
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := s.engine.CashFlow(forecast.Compare(rf, forecast.CashFlowMonths), ledger.Projects)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ledger, _, err := s.state()
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.engine.Dashboard(m, ledger.Projects, forecast.NewPlanBook(ledger.Settings, ledger.Plans))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
