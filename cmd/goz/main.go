// Command goz is the terminal Z-Machine interpreter: pointed at a story
// file directly, or left to browse and download one from the IF Archive.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/davetcode/goz/internal/zgametest"
	"github.com/davetcode/goz/internal/zlog"
	"github.com/davetcode/goz/zstory"
	"github.com/davetcode/goz/ztui"
)

func main() {
	var romPath, cacheDir, logLevel string
	var undoDepth int

	root := &cobra.Command{
		Use:   "goz [story-file]",
		Short: "A terminal Z-Machine interpreter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if romPath == "" && len(args) == 1 {
				romPath = args[0]
			}
			return run(romPath, cacheDir, logLevel, undoDepth)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.Flags().StringVar(&romPath, "rom", "", "Path to a Z-machine story file to run directly")
	root.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "Directory to cache the story index and downloads in")
	root.Flags().IntVar(&undoDepth, "undo-depth", 0, "Bound the save_undo stack (0 keeps the interpreter default)")

	root.AddCommand(newGameTestCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goz")
}

func run(romPath, cacheDir, logLevel string, undoDepth int) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	zlog.Default().SetLevel(level)
	ztui.UndoDepth = undoDepth

	var model tea.Model
	if romPath != "" {
		storyBytes, err := os.ReadFile(romPath)
		if err != nil {
			return fmt.Errorf("reading story file: %w", err)
		}
		model = ztui.NewApplicationModel(storyBytes, filepath.Base(romPath))
	} else {
		model = zstory.NewUIModel(ztui.NewApplicationModel, cacheDir)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// newGameTestCommand exposes zgametest as "goz gametest" alongside the
// standalone zgametest binary, for a CI step that doesn't want a second
// binary on its PATH.
func newGameTestCommand() *cobra.Command {
	var storiesDir, outputDir, singleGame string

	cmd := &cobra.Command{
		Use:   "gametest",
		Short: "Batch-run Z-machine stories and capture their title screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if singleGame != "" {
				result := zgametest.Run(singleGame)
				fmt.Printf("Game: %s\nVersion: %d\nSuccess: %v\n", result.Filename, result.Version, result.Success)
				if result.ErrorMessage != "" {
					fmt.Printf("Error: %s\n", result.ErrorMessage)
				}
				return nil
			}
			return zgametest.RunAll(storiesDir, outputDir)
		},
	}
	cmd.Flags().StringVar(&storiesDir, "stories", "stories", "Directory containing Z-machine story files")
	cmd.Flags().StringVar(&outputDir, "output", "testdata", "Directory to write results to")
	cmd.Flags().StringVar(&singleGame, "game", "", "Test a single game file instead of all games")
	return cmd
}
