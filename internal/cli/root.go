package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nconklindev/sheetmerge/internal/config"
	"github.com/nconklindev/sheetmerge/internal/logging"
	"github.com/nconklindev/sheetmerge/internal/merger"
	"github.com/nconklindev/sheetmerge/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every command after flag parsing.
type app struct {
	configPath string
	verbose    bool
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the sheetmerge command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sheetmerge",
		Short: "Merge one sheet across a folder of Excel workbooks",
		Long: `sheetmerge combines the same sheet from every spreadsheet in a folder
into a single workbook, keeping the columns you choose and tagging each
row with the file it came from.

Run without a subcommand to start the interactive interface.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Root() == cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("sheetmerge %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Print machine-readable JSON instead of text")

	root.AddCommand(newColumnsCommand(a))
	root.AddCommand(newCheckCommand(a))
	root.AddCommand(newMergeCommand(a))

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(version, commit, date string) int {
	root := NewRootCommand(version, commit, date)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(interactive bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if interactive {
		a.logger, err = logging.ForTUI(cfg.Logging, a.verbose)
	} else {
		a.logger, err = logging.New(cfg.Logging, a.verbose)
	}
	return err
}

func (a *app) newMerger() *merger.Merger {
	return merger.New(merger.OptionsFromConfig(a.cfg.Merge), a.logger)
}

func (a *app) runTUI() error {
	m := ui.InitialModel(a.newMerger(), a.cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// headerRow resolves the --header-row flag, falling back to the config.
func (a *app) headerRow(flag string) (int, error) {
	if flag == "" {
		return a.cfg.Merge.DefaultHeaderRow, nil
	}
	return merger.ParseHeaderRow(flag)
}

func emitJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
