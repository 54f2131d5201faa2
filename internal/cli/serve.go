package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/httpapi"
	"github.com/adajed/searchview/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	EcoDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve [store]",
		Short: "Serve a stored search tree as read-only JSON",
		Long: `Serve a stored search tree over HTTP.

Routes:
  GET /healthz
  GET /v1/root
  GET /v1/frames/{id}
  GET /v1/frames/{id}/children
  GET /v1/stats`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, opts.storePath(args))
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.EcoDir, "eco-dir", "", "directory of ECO .tsv files (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions, path string) error {
	st, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.Addr
	}
	ecoDir := opts.EcoDir
	if ecoDir == "" {
		ecoDir = opts.Config.EcoDir
	}

	display := displayOptions(opts.loadOpenings(ecoDir))
	reader := store.NewCachedReader(st, store.NewFrameCache(opts.Config.CacheFrames))
	log := opts.Log.With().Str("store", path).Logger()

	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(log, httpapi.Config{
			Reader:   reader,
			Stats:    st,
			Cache:    reader.Cache(),
			Notation: display.Notation,
			Line:     display.Line,
			Opening:  display.Opening,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitCommandError, "api server", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	return nil
}
