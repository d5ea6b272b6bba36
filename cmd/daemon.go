package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/daemon"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background forecast daemon with HTTP/SSE endpoints",
	Long: "Poll the ledger on an interval, keep the rolling forecast fresh and serve it " +
		"over HTTP (/v1/forecast, /v1/cashflow, /v1/dashboard, ...) with change events on /v1/stream.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and forecast status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Ledger polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.CacheDir(), "clickoflowd.pid"), "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.CacheDir(), "clickoflowd.log"), "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory forecast events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("invalid daemon launch mode")
	case flagDaemonDetach:
		return detachDaemon()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pf := pidFile{path: flagDaemonPIDFile}
	if err := pf.claim(); err != nil {
		return err
	}

	svc, dc, closeFn, err := startForecastDaemon(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := pf.write(daemonRecord{
		PID:       os.Getpid(),
		Addr:      dc.Addr,
		Owner:     dc.Owner,
		Horizon:   dc.Horizon,
		StartedAt: time.Now(),
	}); err != nil {
		return err
	}
	defer pf.remove()

	fmt.Printf("  Stop with: clickoflow daemon stop --pid-file %s\n", pf.path)
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startForecastDaemon opens the ledger, resolves the rate source and builds
// the forecast service. The returned func closes the ledger store.
func startForecastDaemon(ctx context.Context) (*daemon.Service, daemon.Config, func(), error) {
	sess, err := openSession(ctx)
	if err != nil {
		return nil, daemon.Config{}, nil, err
	}
	rates, err := config.RateSource(sess.cfg)
	if err != nil {
		sess.Close()
		return nil, daemon.Config{}, nil, err
	}

	dc := daemonConfig(sess.cfg, sess.owner)
	svc := daemon.New(dc, sess.repo, sess.engine, rates)

	fmt.Printf("  clickoflow daemon listening on http://%s\n", dc.Addr)
	fmt.Printf("  Forecasting %s for %s every %s (base %s)\n",
		horizonLabel(dc.Horizon), dc.Owner, dc.Interval, sess.base())
	if rates != nil && dc.RateRefresh > 0 {
		fmt.Printf("  Refreshing rates every %s\n", dc.RateRefresh)
	}
	return svc, dc, sess.Close, nil
}

func horizonLabel(months int) string {
	if months <= 0 {
		return "the default horizon"
	}
	return fmt.Sprintf("%d months", months)
}

// daemonConfig merges flags over the [daemon] config section.
func daemonConfig(cfg config.Config, owner string) daemon.Config {
	addr := flagDaemonAddr
	if addr == "" {
		addr = cfg.Daemon.Addr
	}
	interval := flagDaemonInterval
	if interval <= 0 {
		interval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}
	return daemon.Config{
		Owner:        owner,
		Horizon:      monthCount(cfg.General.HorizonMonths, 0),
		Interval:     interval,
		RateRefresh:  time.Duration(cfg.Daemon.RateRefreshMins) * time.Minute,
		Addr:         addr,
		EventsBuffer: flagDaemonEventsBuffer,
	}
}

// detachDaemon re-executes the current command as a background child
// logging to --log-file.
func detachDaemon() error {
	if err := (pidFile{path: flagDaemonPIDFile}).claim(); err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(withoutDetach(os.Args[1:]), "--child")...) //nolint:gosec // re-executes this binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started forecast daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	fmt.Println("  Check it with: clickoflow daemon status")
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pf := pidFile{path: flagDaemonPIDFile}
	pid, err := pf.pid()
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if rec, err := pf.record(); err == nil && rec.Addr != "" {
		addr = rec.Addr
	}
	if addr == "" {
		cfg, _ := config.Load()
		addr = cfg.Daemon.Addr
	}
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := fetchDaemonStatus(ctx, http.DefaultClient, "http://"+addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}
	printDaemonStatus(st)
	return nil
}

// fetchDaemonStatus reads /v1/status from the daemon at baseURL.
func fetchDaemonStatus(ctx context.Context, client *http.Client, baseURL string) (daemon.Status, error) {
	var st daemon.Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func printDaemonStatus(st daemon.Status) {
	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	rows := [][]string{
		{"Owner", st.Owner},
		{"Window", fmt.Sprintf("%d months from %s", st.Summary.Months, st.Summary.Start)},
		{"Projects", cli.FormatNumber(int64(st.Summary.Projects))},
		{"Revenue", cli.FormatMoney(st.Summary.TotalRevenue, st.BaseCurrency)},
		{"Profit", cli.RenderSigned(st.Summary.TotalProfit, cli.FormatMoney(st.Summary.TotalProfit, st.BaseCurrency))},
	}
	if st.Summary.BreakEvenMonth != "" {
		rows = append(rows, []string{"Break-even", st.Summary.BreakEvenMonth})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Last poll", lastPoll},
		[]string{"Polls", cli.FormatNumber(st.PollCount)},
		[]string{"Events", fmt.Sprintf("%d (%d subscribers)", st.EventCount, st.SubscriberCount)},
	)
	if !st.RatesUpdatedAt.IsZero() {
		rows = append(rows, []string{"Rates updated", st.RatesUpdatedAt.Local().Format(time.RFC3339)})
	}
	if st.LastError != "" {
		rows = append(rows, []string{"Last error", st.LastError})
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Forecast", ""}, Rows: rows}))
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := (pidFile{path: flagDaemonPIDFile}).stop(8 * time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}
