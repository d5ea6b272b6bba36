package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/daemon"
)

func TestPIDFileRoundTrip(t *testing.T) {
	pf := pidFile{path: filepath.Join(t.TempDir(), "run", "clickoflowd.pid")}
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := pf.write(daemonRecord{PID: 4242, Addr: "127.0.0.1:8787", Owner: "dana", Horizon: 18, StartedAt: started}); err != nil {
		t.Fatalf("write: %v", err)
	}

	pid, err := pf.pid()
	if err != nil || pid != 4242 {
		t.Fatalf("pid = %d, %v; want 4242", pid, err)
	}
	rec, err := pf.record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Addr != "127.0.0.1:8787" || rec.Owner != "dana" || rec.Horizon != 18 || !rec.StartedAt.Equal(started) {
		t.Errorf("record = %+v", rec)
	}

	pf.remove()
	if _, err := os.Stat(pf.path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after remove: %v", err)
	}
	if _, err := os.Stat(pf.recordPath()); !os.IsNotExist(err) {
		t.Errorf("record file still present after remove: %v", err)
	}
}

func TestPIDFileRejectsGarbage(t *testing.T) {
	for _, content := range []string{"", "abc\n", "-3\n", "0"} {
		pf := pidFile{path: filepath.Join(t.TempDir(), "d.pid")}
		if err := os.WriteFile(pf.path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := pf.pid(); err == nil {
			t.Errorf("pid(%q) = nil error, want invalid pid", content)
		}
	}
}

func TestPIDFileClaim(t *testing.T) {
	dir := t.TempDir()

	free := pidFile{path: filepath.Join(dir, "none.pid")}
	if err := free.claim(); err != nil {
		t.Errorf("claim on missing file: %v", err)
	}

	live := pidFile{path: filepath.Join(dir, "live.pid")}
	if err := live.write(daemonRecord{PID: os.Getpid()}); err != nil {
		t.Fatal(err)
	}
	if err := live.claim(); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("claim on live pid = %v, want already running", err)
	}

	stale := pidFile{path: filepath.Join(dir, "stale.pid")}
	if err := stale.write(daemonRecord{PID: 1 << 30}); err != nil {
		t.Fatal(err)
	}
	if err := stale.claim(); err != nil {
		t.Fatalf("claim on stale pid: %v", err)
	}
	if _, err := os.Stat(stale.path); !os.IsNotExist(err) {
		t.Errorf("stale pid file not cleared: %v", err)
	}
}

func TestFetchDaemonStatus(t *testing.T) {
	want := daemon.Status{
		Owner:        "dana",
		BaseCurrency: "USD",
		PollCount:    7,
		Summary: daemon.Snapshot{
			Start:          "2026-03",
			Months:         12,
			Projects:       3,
			TotalRevenue:   decimal.NewFromInt(42000),
			TotalProfit:    decimal.NewFromInt(9000),
			BreakEvenMonth: "2026-06",
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := fetchDaemonStatus(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("fetchDaemonStatus: %v", err)
	}
	if got.Owner != "dana" || got.PollCount != 7 || got.Summary.BreakEvenMonth != "2026-06" {
		t.Errorf("status = %+v", got)
	}
	if !got.Summary.TotalRevenue.Equal(want.Summary.TotalRevenue) {
		t.Errorf("revenue = %s, want %s", got.Summary.TotalRevenue, want.Summary.TotalRevenue)
	}
}

func TestFetchDaemonStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, "HTTP 500"},
		{"bad body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := fetchDaemonStatus(context.Background(), srv.Client(), srv.URL)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
