package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/papermark/internal/review"
)

// CheckFinding is one sanity violation on an exported response.
type CheckFinding struct {
	PaperID string `json:"paper_id"`
	Message string `json:"message"`
}

// CheckResult holds the outcome of a check run.
type CheckResult struct {
	Valid    bool           `json:"valid"`
	Checked  int            `json:"checked"`
	Findings []CheckFinding `json:"findings,omitempty"`
}

// NewCheckCommand creates the check command: validate the configured
// inputs and run the sanity rules over every exported response.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &inputFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate inputs and run sanity rules over exported responses",
		Long: `Load and validate the questionnaire, corpus, and sanity rule file,
then evaluate every rule against each response in the results file.

Exit code 2 means the inputs themselves are invalid; exit code 1 means
the inputs are fine but responses violate sanity rules.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, flags, cmd)
		},
	}

	flags.register(cmd)
	return cmd
}

func runCheck(opts *RootOptions, flags *inputFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ws, err := openWorkspace(flags)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(exitErr.Message, exitErr.Error(), nil)
		}
		return err
	}
	formatter.VerboseLog("questionnaire: %d question(s)", len(ws.questions.Questions))
	formatter.VerboseLog("corpus: %d paper(s)", len(ws.papers.Papers))
	formatter.VerboseLog("sanity rules: %d", len(ws.rules))

	f, err := ws.exporter.Read()
	if err != nil {
		_ = formatter.Error(ErrCodeExportFile, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeExportFile, err)
	}

	result := CheckResult{Valid: true}
	for _, id := range ws.papers.IDs() {
		resp, ok := f.Papers[id]
		if !ok {
			continue
		}
		result.Checked++
		for _, msg := range review.CheckSanity(resp, ws.rules) {
			result.Findings = append(result.Findings, CheckFinding{PaperID: id, Message: msg})
		}
	}
	result.Valid = len(result.Findings) == 0

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %d response(s) checked, no findings\n", result.Checked)
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Sanity check failed")
		fmt.Fprintln(formatter.Writer)
		for _, finding := range result.Findings {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", finding.PaperID, finding.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("sanity check failed with %d finding(s)", len(result.Findings)))
	}
	return nil
}
