package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/papermark/internal/annotate"
	"github.com/roach88/papermark/internal/config"
	"github.com/roach88/papermark/internal/web"
)

// NewServeCommand creates the serve command: the interactive
// annotation shell.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &inputFlags{}
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the annotation web shell on localhost",
		Long: `Serve the annotation page for the configured questionnaire and corpus.

Resumes an interrupted session when a recovery file exists. On Ctrl-C
the current draft is saved and flushed to the results file before the
process exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, flags, port, cmd)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides "+config.EnvPort+")")

	return cmd
}

func runServe(opts *RootOptions, flags *inputFlags, port int, cmd *cobra.Command) error {
	ws, err := openWorkspace(flags)
	if err != nil {
		return err
	}
	if port != 0 {
		ws.cfg.Port = port
	}

	log := newLogger(opts.Verbose)

	ctrl, err := annotate.New(annotate.Config{
		Questions: ws.questions,
		Corpus:    ws.papers,
		Sessions:  ws.sessions,
		Exporter:  ws.exporter,
		Logger:    log,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if err := ctrl.Start(); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeExportFile, err)
	}

	if ctrl.Phase() == annotate.PhaseAllComplete {
		log.Info("every paper is already finished; serving the summary page")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(ctrl, ws.questions, ws.rules, log)
	if err := srv.Run(ctx, ws.cfg.Port); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	return nil
}
