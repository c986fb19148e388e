package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatusResult reports review progress for the configured corpus.
type StatusResult struct {
	Total        int    `json:"total"`
	Finished     int    `json:"finished"`
	InProgress   int    `json:"in_progress"`
	NotStarted   int    `json:"not_started"`
	SessionPaper string `json:"session_paper,omitempty"` // paper a recovery file would resume
	ExportPath   string `json:"export_path"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &inputFlags{}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show review progress",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, flags, cmd)
		},
	}

	flags.register(cmd)
	return cmd
}

func runStatus(opts *RootOptions, flags *inputFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ws, err := openWorkspace(flags)
	if err != nil {
		return err
	}

	f, err := ws.exporter.Read()
	if err != nil {
		_ = formatter.Error(ErrCodeExportFile, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeExportFile, err)
	}

	result := StatusResult{
		Total:      len(ws.papers.Papers),
		ExportPath: ws.exporter.Path(),
	}
	for _, p := range ws.papers.Papers {
		resp, ok := f.Papers[p.ID]
		switch {
		case ok && resp.Finished():
			result.Finished++
		case ok:
			result.InProgress++
		default:
			result.NotStarted++
		}
	}

	if st, ok, _ := ws.sessions.Load(); ok {
		result.SessionPaper = st.CurrentPaperID
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d of %d paper(s) finished, %d in progress, %d not started\n",
		result.Finished, result.Total, result.InProgress, result.NotStarted)
	if result.SessionPaper != "" {
		fmt.Fprintf(formatter.Writer, "recovery file would resume paper %s\n", result.SessionPaper)
	}
	return nil
}
