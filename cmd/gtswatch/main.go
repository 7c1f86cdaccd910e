// Command gtswatch monitors used-car listings for a configured 911 build.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/fwagner/gtswatch/internal/config"
	"github.com/fwagner/gtswatch/internal/criteria"
	"github.com/fwagner/gtswatch/internal/dash"
	"github.com/fwagner/gtswatch/internal/engine"
	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/logging"
	"github.com/fwagner/gtswatch/internal/notify"
	"github.com/fwagner/gtswatch/internal/report"
	"github.com/fwagner/gtswatch/internal/source"
	"github.com/fwagner/gtswatch/internal/track"
)

func main() {
	// Secrets come from the environment; a local .env is a convenience.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gtswatch",
		Usage: "watch the market for a 992.1 Carrera GTS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "gtswatch.yaml",
				Usage:   "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "fetch all enabled sources, evaluate, report, notify",
				Action: runCmd,
			},
			{
				Name:  "export",
				Usage: "re-evaluate tracked listings and write a report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "report output path (default: report_path from config)",
					},
				},
				Action: exportCmd,
			},
			{
				Name:   "dashboard",
				Usage:  "browse tracked listings in a terminal table",
				Action: dashboardCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}

func setup(c *cli.Context) (*config.Config, *criteria.Criteria, *track.SQLiteStore, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}

	crit := criteria.Default()
	if cfg.CriteriaPath != "" {
		crit, err = criteria.Load(cfg.CriteriaPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load criteria: %w", err)
		}
	}

	store, err := track.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, crit, store, nil
}

func runCmd(c *cli.Context) error {
	cfg, crit, store, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Minute)
	defer cancel()

	records := fetchAll(ctx, cfg)
	eng := engine.New(crit, track.NewTracker(store))
	outcomes, sum := eng.Run(records)

	if err := report.Write(cfg.ReportPath, outcomes, sum); err != nil {
		return err
	}
	logging.Info("report written", "path", cfg.ReportPath)

	if cfg.Telegram.Enabled {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		if token == "" {
			logging.Warn("telegram enabled but TELEGRAM_BOT_TOKEN is not set")
		} else {
			tg := notify.NewTelegram(token, cfg.Telegram.ChatID)
			sent := notify.NotifyAll(ctx, tg, outcomes)
			logging.Info("notifications sent", "count", sent)
		}
	}
	return nil
}

// fetchAll polls every enabled source. A failing source is logged and
// skipped so one provider outage never blanks the whole run.
func fetchAll(ctx context.Context, cfg *config.Config) []listing.RawRecord {
	var records []listing.RawRecord
	for name, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		var src source.Source
		if sc.Path != "" {
			src = source.NewFileSource(name, sc.Path)
		} else {
			src = source.NewHTTPSource(name, sc.URLs, cfg.UserAgent, cfg.RequestDelay())
		}

		batch, err := src.Fetch(ctx)
		if err != nil {
			logging.Error("source fetch failed", "source", name, "error", err)
			continue
		}
		logging.Info("source fetched", "source", name, "records", len(batch))
		records = append(records, batch...)
	}
	return records
}

func exportCmd(c *cli.Context) error {
	cfg, crit, store, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()

	states, err := store.All()
	if err != nil {
		return err
	}

	// Snapshots are re-evaluated against the current criteria, so a rule
	// change reshuffles the export without refetching anything.
	eng := engine.New(crit, track.NewTracker(track.NewMemoryStore()))
	sum := engine.Summary{
		RunID:    "export",
		Started:  time.Now(),
		Total:    len(states),
		Finished: time.Now(),
	}

	var outcomes []engine.Outcome
	for _, st := range states {
		if len(st.Snapshot) == 0 {
			continue
		}
		var l listing.Listing
		if err := json.Unmarshal(st.Snapshot, &l); err != nil {
			logging.Warn("skipping undecodable snapshot", "key", st.Key, "error", err)
			continue
		}
		res := eng.Reevaluate(l)
		if res.Passed {
			sum.Matches++
		}
		outcomes = append(outcomes, engine.Outcome{Listing: l, Result: res})
	}

	engine.Sort(outcomes)

	out := c.String("out")
	if out == "" {
		out = cfg.ReportPath
	}
	if err := report.Write(out, outcomes, sum); err != nil {
		return err
	}
	logging.Info("export written", "path", out, "listings", len(outcomes))
	return nil
}

func dashboardCmd(c *cli.Context) error {
	_, _, store, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()
	return dash.Run(store)
}
