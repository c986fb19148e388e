package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/papermark/internal/review"
)

// ExportResult summarizes an export run.
type ExportResult struct {
	Path     string `json:"path"`
	Papers   int    `json:"papers"`
	Upserted string `json:"upserted,omitempty"` // paper id flushed from the session, if any
	Rewrote  bool   `json:"rewrote,omitempty"`
}

// NewExportCommand creates the export command: flush the current
// session draft into the results file without serving the UI.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &inputFlags{}
	var force bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flush the recovered session into the results file",
		Long: `Merge the current recovery-file draft into the results file as an
in-progress response. Entries for other papers are preserved.

With --force the results file is rewritten from scratch instead of
merged. This is the escape hatch for a corrupt results file: prior
entries are lost, so the corrupt file should be backed up first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, flags, force, cmd)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "rewrite the results file, discarding unreadable prior content")

	return cmd
}

func runExport(opts *RootOptions, flags *inputFlags, force bool, cmd *cobra.Command) error {
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

	st, ok, loadErr := ws.sessions.Load()
	if loadErr != nil {
		formatter.VerboseLog("recovery file unusable: %v", loadErr)
	}

	changed := map[string]review.PaperResponse{}
	upserted := ""
	if ok && len(st.Draft) > 0 {
		if _, exists := ws.papers.Paper(st.CurrentPaperID); exists {
			changed[st.CurrentPaperID] = review.PaperResponse{
				PaperID:   st.CurrentPaperID,
				Status:    review.StatusInProgress,
				Answers:   st.Draft,
				SessionID: st.SessionID,
			}
			upserted = st.CurrentPaperID
		} else {
			formatter.VerboseLog("session paper %q not in corpus, skipping", st.CurrentPaperID)
		}
	}

	if force {
		err = ws.exporter.WriteFull(changed, true)
	} else {
		if len(changed) == 0 {
			formatter.VerboseLog("no session draft to flush")
		}
		err = ws.exporter.Upsert(changed)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeExportFile, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeExportFile, err)
	}

	f, err := ws.exporter.Read()
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeExportFile, err)
	}

	result := ExportResult{
		Path:     ws.exporter.Path(),
		Papers:   len(f.Papers),
		Upserted: upserted,
		Rewrote:  force,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "exported %d paper(s) to %s\n", result.Papers, result.Path)
	if upserted != "" {
		fmt.Fprintf(formatter.Writer, "flushed in-progress draft for %s\n", upserted)
	}
	return nil
}
