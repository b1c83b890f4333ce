// Package maintenance implements the scoring maintenance command:
// sequence audits and metric recomputation against a scoring database.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dompetkecil/scoring/internal/scoring/service"
	"github.com/dompetkecil/scoring/internal/scoring/storage/sqlite"
)

// Config holds maintenance command configuration.
type Config struct {
	SessionID  string
	SessionIDs string
	DBPath     string        `env:"SCORING_DB_PATH"`
	Timeout    time.Duration `env:"SCORING_MAINTENANCE_TIMEOUT" envDefault:"10m"`
	Verify     bool
	Metrics    bool
	JSONOutput bool
}

type envConfig struct {
	DBPath  string        `env:"SCORING_DB_PATH"`
	Timeout time.Duration `env:"SCORING_MAINTENANCE_TIMEOUT" envDefault:"10m"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		DBPath:  envCfg.DBPath,
		Timeout: envCfg.Timeout,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "scoring.db")
	}

	fs.StringVar(&cfg.SessionID, "session-id", "", "session ID to audit")
	fs.StringVar(&cfg.SessionIDs, "session-ids", "", "comma-separated session IDs to audit")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to scoring sqlite database (default: SCORING_DB_PATH or data/scoring.db)")
	fs.BoolVar(&cfg.Verify, "verify", false, "verify the stored sequence invariant for the selected sessions")
	fs.BoolVar(&cfg.Metrics, "metrics", false, "recompute and append metric snapshots for the selected sessions")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON reports")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type sessionReport struct {
	SessionID string `json:"session_id"`
	Verified  bool   `json:"verified,omitempty"`
	Snapshots int    `json:"snapshots,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Run executes the maintenance command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if !cfg.Verify && !cfg.Metrics {
		return errors.New("nothing to do: pass -verify and/or -metrics")
	}

	sessionIDs := collectSessionIDs(cfg)
	if len(sessionIDs) == 0 {
		return errors.New("-session-id or -session-ids is required")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open scoring store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "Error: close scoring store: %v\n", closeErr)
		}
	}()

	svc, err := service.New(store)
	if err != nil {
		return fmt.Errorf("build scoring service: %w", err)
	}

	var failed bool
	reports := make([]sessionReport, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		report := sessionReport{SessionID: sessionID}

		if cfg.Verify {
			if err := svc.VerifySequence(ctx, sessionID); err != nil {
				report.Error = err.Error()
				failed = true
			} else {
				report.Verified = true
			}
		}
		if cfg.Metrics && report.Error == "" {
			snapshots, err := svc.ComputeMetrics(ctx, sessionID)
			if err != nil {
				report.Error = err.Error()
				failed = true
			} else {
				report.Snapshots = len(snapshots)
			}
		}

		reports = append(reports, report)
	}

	if cfg.JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(reports); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		for _, report := range reports {
			printReport(out, cfg, report)
		}
	}

	if failed {
		return errors.New("one or more sessions failed")
	}
	return nil
}

func printReport(out io.Writer, cfg Config, report sessionReport) {
	if report.Error != "" {
		fmt.Fprintf(out, "session %s: FAILED: %s\n", report.SessionID, report.Error)
		return
	}
	if cfg.Verify {
		fmt.Fprintf(out, "session %s: sequence invariant holds\n", report.SessionID)
	}
	if cfg.Metrics {
		fmt.Fprintf(out, "session %s: appended %d metric snapshots\n", report.SessionID, report.Snapshots)
	}
}

func collectSessionIDs(cfg Config) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	add(cfg.SessionID)
	for _, id := range strings.Split(cfg.SessionIDs, ",") {
		add(id)
	}
	return ids
}
