// Command zgametest batch-runs every story in a directory through the
// interpreter far enough to capture its title screen, without a terminal
// attached, so regressions across a whole story corpus show up as a diff
// in screenshots.txt rather than a manual play session.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetcode/goz/internal/zgametest"
)

func main() {
	var storiesDir, outputDir, singleGame string

	cmd := &cobra.Command{
		Use:   "zgametest",
		Short: "Batch-run Z-machine stories and capture their title screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if singleGame != "" {
				printResult(zgametest.Run(singleGame))
				return nil
			}
			return zgametest.RunAll(storiesDir, outputDir)
		},
	}
	cmd.Flags().StringVar(&storiesDir, "stories", "stories", "Directory containing Z-machine story files")
	cmd.Flags().StringVar(&outputDir, "output", "testdata", "Directory to write results to")
	cmd.Flags().StringVar(&singleGame, "game", "", "Test a single game file instead of all games")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printResult(result zgametest.TestResult) {
	fmt.Printf("Game: %s\n", result.Filename)
	fmt.Printf("Version: %d\n", result.Version)
	fmt.Printf("Success: %v\n", result.Success)

	if result.PanicMessage != "" {
		fmt.Printf("Panic: %s\n", result.PanicMessage)
		fmt.Printf("Stack: %s\n", result.StackTrace)
	}
	if result.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", result.ErrorMessage)
	}
	fmt.Printf("First Screen:\n%s\n", strings.Join(result.FirstScreen, "\n"))
}
