package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/papermark/internal/config"
	"github.com/roach88/papermark/internal/corpus"
	"github.com/roach88/papermark/internal/export"
	"github.com/roach88/papermark/internal/review"
	"github.com/roach88/papermark/internal/schema"
	"github.com/roach88/papermark/internal/session"
)

// Error codes surfaced by CLI commands.
const (
	ErrCodeConfig        = "E001" // configuration invalid
	ErrCodeQuestionnaire = "E002" // questionnaire failed to load
	ErrCodeCorpus        = "E003" // corpus failed to load
	ErrCodeSanityRules   = "E004" // sanity rule file failed to load
	ErrCodeExportFile    = "E005" // export file corrupt or unwritable
	ErrCodeSession       = "E006" // recovery file unusable
)

// inputFlags are the per-command overrides for the environment config.
type inputFlags struct {
	questions   string
	corpusPath  string
	dataDir     string
	sanityRules string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.questions, "questions", "", "questionnaire YAML (overrides "+config.EnvQuestions+")")
	cmd.Flags().StringVar(&f.corpusPath, "corpus", "", "corpus CSV (overrides "+config.EnvCorpus+")")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "directory for session and results files (overrides "+config.EnvDataDir+")")
	cmd.Flags().StringVar(&f.sanityRules, "sanity-rules", "", "sanity rule YAML (overrides "+config.EnvSanity+")")
}

// workspace is everything a command needs loaded and validated.
type workspace struct {
	cfg       *config.Config
	questions *schema.Questionnaire
	papers    *corpus.Corpus
	sessions  *session.Store
	exporter  *export.Writer
	rules     []review.SanityRule
}

// openWorkspace resolves config (env, then flags), loads and validates
// the questionnaire and corpus, and prepares the stores. Every failure
// is an ExitError with a stable code.
func openWorkspace(flags *inputFlags) (*workspace, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if flags.questions != "" {
		cfg.QuestionsPath = flags.questions
	}
	if flags.corpusPath != "" {
		cfg.CorpusPath = flags.corpusPath
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.sanityRules != "" {
		cfg.SanityRulesPath = flags.sanityRules
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}

	questions, err := schema.Load(cfg.QuestionsPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeQuestionnaire, err)
	}
	papers, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeCorpus, err)
	}

	var rules []review.SanityRule
	if cfg.SanityRulesPath != "" {
		rules, err = review.LoadSanityRules(cfg.SanityRulesPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeSanityRules, err)
		}
	}

	sessions, err := session.NewStore(cfg.SessionPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeSession, err)
	}

	return &workspace{
		cfg:       cfg,
		questions: questions,
		papers:    papers,
		sessions:  sessions,
		exporter:  export.NewWriter(cfg.ExportPath(), papers.IDs()),
		rules:     rules,
	}, nil
}

// newLogger builds the slog logger for commands: text on stderr, debug
// level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
