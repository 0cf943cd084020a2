package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"anitransfer/internal/arbiter"
	"anitransfer/internal/batch"
	"anitransfer/internal/blacklist"
	"anitransfer/internal/config"
	"anitransfer/internal/logging"
	"anitransfer/internal/malxml"
	"anitransfer/internal/mappings"
	"anitransfer/internal/pacer"
	"anitransfer/internal/planet"
	"anitransfer/internal/requestcache"
	"anitransfer/internal/resolver"
	"anitransfer/internal/resolver/jikan"
	"anitransfer/internal/runlog"
	"anitransfer/internal/services"
	"anitransfer/internal/stats"
)

func newConvertCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		outfile        string
		limit          int
		delaySeconds   int
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "convert <export.json>",
		Short: "Resolve an anime-planet.com export and write a MAL import file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if delaySeconds >= 0 {
				cfg.Jikan.DelaySeconds = delaySeconds
			}
			return runConvert(cmd, cfg, args[0], outfile, limit, nonInteractive)
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "Export destination (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only process the first N entries")
	cmd.Flags().IntVar(&delaySeconds, "delay", -1, "Seconds to wait between API requests")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; leave undecided titles unmatched")
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, exportPath, outfile string, limit int, nonInteractive bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", cfg.LogFilePath()},
	})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	// One process per data directory; concurrent runs would race on the
	// CSV stores.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another anitransfer process is using %s", cfg.Paths.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger.Info("starting conversion",
		logging.String(logging.FieldRunID, runID),
		logging.String("export", exportPath))

	export, err := planet.Load(exportPath)
	if err != nil {
		return err
	}
	entries := export.Entries
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	st := stats.New()
	cache := requestcache.New(cfg.Paths.CacheDir, cfg.Matching.IgnoreExpiry, logger)
	store := mappings.NewStore(cfg.Paths.MappingFile, logger)
	bl, err := blacklist.Open(cfg.Paths.BlacklistFile, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bl.Close() }()

	client, err := jikan.New(cfg.Jikan.BaseURL, cfg.Jikan.SearchLimit,
		time.Duration(cfg.Jikan.RequestTimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}
	gate := pacer.New(time.Duration(cfg.Jikan.DelaySeconds)*time.Second, logger, st)

	var arb arbiter.Arbiter = arbiter.Noop{}
	if !nonInteractive && isatty.IsTerminal(os.Stdin.Fd()) {
		arb = arbiter.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Matching.MaxChoices)
	}

	res := resolver.New(client, cache, store, bl, gate, st, logger, cfg.Jikan.SearchAttempts)
	coordinator := batch.New(res, arb, store, bl, st, logger, cfg.Matching.MaxPasses)

	startedAt := time.Now()
	report, err := coordinator.Run(ctx, entries)
	if err != nil {
		return err
	}

	if outfile == "" {
		outfile = cfg.Output.File
	}
	exporter := malxml.NewExporter(export.User.Name)
	for _, resolution := range report.Resolved {
		if err := exporter.Add(resolution.Entry, resolution.ID); err != nil {
			return err
		}
	}
	if err := exporter.WriteFile(outfile); err != nil {
		return err
	}

	// Close persists any titles blacklisted during arbitration before the
	// run is recorded as finished.
	if err := bl.Close(); err != nil {
		return err
	}

	if err := recordRun(cmd, cfg, runID, startedAt, outfile, len(entries), report, st); err != nil {
		logger.Warn("recording run history failed", logging.Error(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWrote %d entries to %s\n", exporter.Len(), outfile)
	printUnmatched(cmd, report)
	fmt.Fprintln(out, st.Summary())
	if report.Aborted {
		fmt.Fprintln(out, "Run aborted during review; unreviewed titles were left unmatched.")
	}
	return nil
}

func recordRun(cmd *cobra.Command, cfg *config.Config, runID string, startedAt time.Time, outfile string, total int, report *batch.Report, st *stats.Stats) error {
	history, err := runlog.Open(cfg.RunDBPath())
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	return history.Record(cmd.Context(), runlog.Run{
		ID:             runID,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		ExportFile:     outfile,
		Entries:        int64(total),
		Resolved:       int64(len(report.Resolved)),
		Unmatched:      int64(len(report.Unmatched)),
		Unsupported:    int64(len(report.Unsupported)),
		Requests:       st.Get(stats.RequestsTotal),
		CachedRequests: st.Get(stats.RequestsCached),
		Aborted:        report.Aborted,
	})
}

func printUnmatched(cmd *cobra.Command, report *batch.Report) {
	if len(report.Unmatched) == 0 {
		return
	}
	caser := cases.Title(language.English)
	rows := make([][]string, 0, len(report.Unmatched))
	for _, miss := range report.Unmatched {
		rows = append(rows, []string{miss.Entry.Name, caser.String(string(miss.Reason))})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Unmatched titles:")
	fmt.Fprintln(out, renderTable([]string{"Title", "Reason"}, rows, nil))
}
