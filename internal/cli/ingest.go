package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/ingest"
	"github.com/adajed/searchview/internal/store"
	"github.com/adajed/searchview/internal/trace"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Output    string
	MaxPly    int
	BatchSize int
	Force     bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <trace>",
		Short: "Build a tree store from a search trace",
		Long: `Read a search trace (plain or .zst) and persist every frame up to
--max-ply together with its parent/child edges.

Examples:
  searchview ingest run.log -o run.db
  searchview ingest run.log.zst -o run.db --max-ply 12 --force`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "store to create (default from config)")
	cmd.Flags().IntVar(&opts.MaxPly, "max-ply", 0, "deepest ply to persist (default from config)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "writes per transaction (default from config)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "replace an existing store")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions, tracePath string) error {
	cfg := opts.Config
	out := opts.Output
	if out == "" {
		out = cfg.Store
	}
	maxPly := cfg.MaxPly
	if cmd.Flags().Changed("max-ply") {
		maxPly = opts.MaxPly
	}
	if maxPly < 0 {
		return NewExitError(ExitCommandError, "--max-ply must not be negative")
	}
	batch := cfg.BatchSize
	if opts.BatchSize > 0 {
		batch = opts.BatchSize
	}

	reader, err := trace.Open(tracePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace", err)
	}
	defer reader.Close()

	if _, err := os.Stat(out); err == nil {
		if !opts.Force {
			return NewExitError(ExitCommandError, out+" already exists (use --force to replace it)")
		}
		if store.IsLocked(out) {
			if !store.IsLockStale(out) {
				pid, _ := store.LockHolder(out)
				return WrapExitError(ExitCommandError, "refusing to replace "+out,
					fmt.Errorf("%w by ingest pid %d", store.ErrLocked, pid))
			}
			opts.Log.Warn().Str("lock", store.LockFilePath(out)).Msg("removing stale ingest lock")
		}
		if err := removeStore(out); err != nil {
			return WrapExitError(ExitCommandError, "failed to replace store", err)
		}
	}

	log := opts.Log.With().Str("trace", tracePath).Str("store", out).Logger()
	st, err := store.Open(out, store.Options{BatchSize: batch, Logger: log})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	if err := st.AcquireLock(); err != nil {
		return WrapExitError(ExitCommandError, "failed to lock store", err)
	}
	defer func() {
		if err := st.ReleaseLock(); err != nil {
			log.Warn().Err(err).Msg("release lock")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	meta := [][2]string{
		{store.MetaRunID, runID},
		{store.MetaSource, tracePath},
		{store.MetaMaxPly, strconv.Itoa(maxPly)},
		{store.MetaStartedAt, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range meta {
		if err := st.SetMeta(ctx, kv[0], kv[1]); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metadata", err)
		}
	}

	log.Info().Str("run", runID).Int("max_ply", maxPly).Int("batch", batch).Msg("ingest started")

	ing := ingest.New(ingest.Config{MaxPly: maxPly, Logger: log}, st)
	res, err := ing.Run(ctx, reader)
	if err != nil {
		return ingestError(err)
	}

	if err := st.SetMeta(ctx, store.MetaFinishedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write metadata", err)
	}
	if err := st.Flush(); err != nil {
		return WrapExitError(ExitCommandError, "failed to flush store", err)
	}

	log.Info().
		Int64("root", res.RootID).
		Int("searches", len(res.Children)).
		Int("frames", res.Frames).
		Int("skipped", res.Skipped).
		Int("dropped", res.Dropped).
		Int("stray", res.Stray).
		Int("lines", res.Lines).
		Dur("elapsed", res.Elapsed).
		Msg("ingest finished")

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames in %d searches (%d beyond max ply, %d unterminated) in %s\n",
		out, res.Frames, len(res.Children), res.Skipped, res.Dropped, res.Elapsed.Round(time.Millisecond))
	return nil
}

func ingestError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrMalformedTrace):
		return WrapExitError(ExitFailure, "trace rejected", err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "ingest interrupted", err)
	default:
		return WrapExitError(ExitCommandError, "ingest failed", err)
	}
}
