// Package cli implements the prompt-genie command line. Without a
// subcommand it starts the terminal UI.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-genie/internal/config"
	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/logging"
	"github.com/dpshade/prompt-genie/internal/service"
	"github.com/dpshade/prompt-genie/internal/version"
)

// Command annotations read by the persistent pre-run
const (
	// annotationSkipLoad marks commands that do not read the data files
	annotationSkipLoad = "skip_load"
	// annotationMutates marks commands that write the template library; they
	// refuse to run when the library could not be read
	annotationMutates = "mutates"
)

// app carries the state shared by all commands of one invocation
type app struct {
	cfgFile string
	dataDir string
	verbose bool

	cfg        *config.Config
	log        *logging.Logger
	svc        *service.Service
	errHandler *errors.CLIErrorHandler
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "prompt-genie",
		Short: "Keyword prompt builder and themed template library",
		Long: `PromptGenie composes image-generation prompts from a keyword catalog and
keeps a library of themed prompt templates.

Run without a command to open the terminal UI. The data files live in the
data directory (default ~/.prompt-genie):
  theme_prompts.json     template library, backed up before every save
  keyword_library.json   keyword catalog, read only`,
		Version:       version.GitRelease,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(
		&a.cfgFile, "config", "", "config file (default: <data-dir>/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&a.dataDir, "data-dir", "", "data directory (default: ~/.prompt-genie)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&a.verbose, "verbose", "v", false, "show info logs and error causes",
	)

	rootCmd.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.copyCmd(),
		a.categoriesCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.backupsCmd(),
		a.keywordsCmd(),
		a.composeCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, formatError(rootCmd, err))
		return 1
	}
	return 0
}

// formatError renders application errors with their severity; anything else
// (flag and argument errors from cobra) is printed plainly
func formatError(rootCmd *cobra.Command, err error) string {
	if !errors.IsAppError(err) {
		return "Error: " + err.Error()
	}
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	return errors.NewCLIErrorHandler(verbose, zerolog.Nop()).FormatError(err)
}

// setup loads the configuration, builds the logger and service and reads
// the data files
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations[annotationSkipLoad] == "true" {
		return nil
	}

	cfgFile := a.cfgFile
	if cfgFile == "" && a.dataDir != "" {
		// a data directory given on the command line also holds its config
		candidate := filepath.Join(a.dataDir, config.DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			cfgFile = candidate
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	a.cfg = cfg

	mode := logging.ModeCLI
	if cmd == cmd.Root() {
		mode = logging.ModeTUI
	}
	a.log = logging.New(cfg, mode)
	logger := a.log.Logger
	if mode == logging.ModeCLI && !a.verbose && logger.GetLevel() < zerolog.WarnLevel {
		logger = logger.Level(zerolog.WarnLevel)
	}
	a.errHandler = errors.NewCLIErrorHandler(a.verbose, logger)

	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}
	a.svc = service.NewService(cfg, logger)
	if err := a.svc.Load(); err != nil {
		// only the template library is written back
		if loadErr := a.svc.Templates().LoadErr(); loadErr != nil && cmd.Annotations[annotationMutates] == "true" {
			return a.fail(loadErr)
		}
		logger.Warn().Err(err).Msg("some data could not be loaded")
	}
	return nil
}

// fail logs err at its severity and hands it back for Execute to print
func (a *app) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		_ = a.errHandler.HandleError(err)
	}
	return err
}

func mutating(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationMutates] = "true"
	return cmd
}

func skipLoad(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationSkipLoad] = "true"
	return cmd
}
