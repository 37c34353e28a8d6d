package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"timetable-ics/config"
	"timetable-ics/export"
	"timetable-ics/googlecalendar"
	"timetable-ics/scraper"
	"timetable-ics/site"
	"timetable-ics/timetable"
	"timetable-ics/uploader"
)

type options struct {
	configFile    string
	envFile       string
	timetableFile string
	out           string
	upload        bool
	google        bool
	clearAll      bool
	serve         bool
	interval      time.Duration
	verbose       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "config.json", "path to the config file")
	flag.StringVar(&opts.envFile, "env", ".env", "path to an optional .env file with secrets")
	flag.StringVar(&opts.timetableFile, "timetable", "timetable.json", "path to the timetable request JSON")
	flag.StringVar(&opts.out, "out", "", "output .ics path (defaults to the config output)")
	flag.BoolVar(&opts.upload, "upload", false, "upload the calendar to GitHub")
	flag.BoolVar(&opts.google, "google", false, "sync the calendar to Google Calendar")
	flag.BoolVar(&opts.clearAll, "clear", false, "clear the Google calendar before the first sync")
	flag.BoolVar(&opts.serve, "serve", false, "serve the export API instead of writing a file")
	flag.DurationVar(&opts.interval, "interval", 0, "repeat the Google sync at this interval")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("timetable export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	cfg, err := config.LoadConfig(opts.configFile, opts.envFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	holidays, err := resolveHolidays(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if opts.serve {
		return site.NewServer(cfg, holidays, site.WithLogger(logger)).StartServer(ctx, cfg.ListenAddr)
	}

	req, err := loadRequest(opts.timetableFile)
	if err != nil {
		return err
	}
	events, err := buildEvents(cfg, req, holidays, logger)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = cfg.Output
	}
	data, err := writeCalendar(out, events)
	if err != nil {
		return err
	}
	logger.Info("wrote calendar", "path", out, "events", len(events))

	if opts.upload {
		up := uploader.New(cfg.Github, uploader.WithLogger(logger))
		message := fmt.Sprintf("Update %s for %s semester %d", filepath.Base(cfg.Github.Path), req.AcademicYear, req.Semester)
		if err := up.Upload(ctx, data, message); err != nil {
			return err
		}
	}

	if opts.google {
		return syncGoogle(ctx, cfg, events, opts, logger)
	}
	return nil
}

func resolveHolidays(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]time.Time, error) {
	holidays, err := cfg.HolidayDates()
	if err != nil {
		return nil, err
	}
	if cfg.HolidaySourceURL == "" {
		return holidays, nil
	}
	scraped, err := scraper.New(scraper.WithLogger(logger)).FetchHolidays(ctx, cfg.HolidaySourceURL, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("error fetching holidays: %w", err)
	}
	return append(holidays, scraped...), nil
}

func loadRequest(path string) (timetable.Request, error) {
	var req timetable.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("error reading timetable: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("error parsing timetable %s: %w", path, err)
	}
	return req, nil
}

func buildEvents(cfg *config.Config, req timetable.Request, holidays []time.Time, logger *slog.Logger) ([]timetable.CalendarEvent, error) {
	sem, err := cfg.Semester(req.AcademicYear, req.Semester, holidays)
	if err != nil {
		return nil, err
	}
	assembler := timetable.NewAssembler(timetable.WithLogger(logger))
	return assembler.Events(sem, req.Timetable, req.Modules, req.Hidden), nil
}

func writeCalendar(path string, events []timetable.CalendarEvent) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, events); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("error writing calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// syncGoogle mirrors events into Google Calendar, retrying transient
// failures, and keeps doing so every interval when one is set.
func syncGoogle(ctx context.Context, cfg *config.Config, events []timetable.CalendarEvent, opts options, logger *slog.Logger) error {
	service, err := googlecalendar.NewService(ctx, cfg.Google, logger)
	if err != nil {
		return err
	}
	syncer := googlecalendar.NewSyncer(service, cfg.Google.CalendarID, googlecalendar.WithLogger(logger))

	if opts.clearAll {
		if err := syncer.ClearCalendar(ctx); err != nil {
			return err
		}
	}

	const maxRetries = 3
	for {
		var syncErr error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			if _, syncErr = syncer.Sync(ctx, events); syncErr == nil {
				break
			}
			logger.Warn("google sync failed", "attempt", attempt, "error", syncErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
		}
		if syncErr != nil {
			return syncErr
		}
		if opts.interval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.interval):
		}
	}
}
