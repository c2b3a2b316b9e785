// Package zgametest batch-runs stories through the interpreter far
// enough to capture their title screen, with a headless zboundary
// implementation standing in for a terminal - shared by the standalone
// zgametest binary and goz's "gametest" subcommand.
package zgametest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/davetcode/goz/zcpu"
	"github.com/davetcode/goz/zdict"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zquetzal"
	"github.com/davetcode/goz/ztext"
)

// TestResult captures the outcome of running a single game.
type TestResult struct {
	Filename     string   `json:"filename"`
	Version      uint8    `json:"version"`
	Success      bool     `json:"success"`
	PanicMessage string   `json:"panic_message,omitempty"`
	StackTrace   string   `json:"stack_trace,omitempty"`
	FirstScreen  []string `json:"first_screen,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// RunAll discovers every story file under storiesDir, runs each through
// Run, and writes test_results.json/screenshots.txt to outputDir.
func RunAll(storiesDir, outputDir string) error {
	if _, err := os.Stat(storiesDir); os.IsNotExist(err) {
		return fmt.Errorf("stories directory not found: %s (run zscraper first)", storiesDir)
	}

	entries, err := os.ReadDir(storiesDir)
	if err != nil {
		return fmt.Errorf("reading stories directory: %w", err)
	}

	var games []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".z1") || strings.HasSuffix(name, ".z2") ||
			strings.HasSuffix(name, ".z3") || strings.HasSuffix(name, ".z4") ||
			strings.HasSuffix(name, ".z5") || strings.HasSuffix(name, ".z6") ||
			strings.HasSuffix(name, ".z7") || strings.HasSuffix(name, ".z8") {
			games = append(games, filepath.Join(storiesDir, name))
		}
	}

	if len(games) == 0 {
		return fmt.Errorf("no game files found in %s", storiesDir)
	}

	fmt.Printf("Found %d games to test\n", len(games))

	var results []TestResult
	for i, gamePath := range games {
		filename := filepath.Base(gamePath)
		result := Run(gamePath)
		results = append(results, result)

		status := "✓"
		if !result.Success {
			status = "✗"
		}
		fmt.Printf("[%d/%d] %s %s\n", i+1, len(games), status, filename)
		if !result.Success && result.ErrorMessage != "" {
			fmt.Printf("        Error: %s\n", result.ErrorMessage)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	resultsPath := filepath.Join(outputDir, "test_results.json")
	resultsJSON, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(resultsPath, resultsJSON, 0644); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
	} else {
		fmt.Printf("\nResults written to %s\n", resultsPath)
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.Success {
			passed++
		} else {
			failed++
		}
	}
	fmt.Printf("\n=== SUMMARY ===\nPassed: %d\nFailed: %d\nTotal: %d\n", passed, failed, len(results))

	screenshotsPath := filepath.Join(outputDir, "screenshots.txt")
	var screenshots strings.Builder
	for _, r := range results {
		fmt.Fprintf(&screenshots, "=== %s (v%d) ===\n", r.Filename, r.Version)
		if r.Success {
			for _, line := range r.FirstScreen {
				screenshots.WriteString(line + "\n")
			}
		} else {
			fmt.Fprintf(&screenshots, "ERROR: %s\n", r.ErrorMessage)
			if r.PanicMessage != "" {
				fmt.Fprintf(&screenshots, "PANIC: %s\n", r.PanicMessage)
			}
		}
		screenshots.WriteString("\n")
	}
	return os.WriteFile(screenshotsPath, []byte(screenshots.String()), 0644)
}

// Run loads gamePath and runs it headlessly, answering its first input
// request with "quit", until the story halts or a 5-second timeout
// expires. A timeout before any input request counts as a failure.
func Run(gamePath string) (result TestResult) {
	filename := filepath.Base(gamePath)
	result.Filename = filename

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.PanicMessage = fmt.Sprintf("%v", r)
			result.StackTrace = string(debug.Stack())
		}
	}()

	storyBytes, err := os.ReadFile(gamePath)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("Failed to read file: %v", err)
		return
	}

	if len(storyBytes) < 64 {
		result.ErrorMessage = "File too small to be a valid Z-machine file"
		return
	}

	result.Version = storyBytes[0]

	mem, err := zmemory.Load(storyBytes)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("Failed to load memory: %v", err)
		return
	}

	alphabets, err := ztext.LoadAlphabets(mem)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("Failed to load alphabets: %v", err)
		return
	}

	dict, err := zdict.Parse(mem, uint32(mem.DictionaryBase), alphabets)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("Failed to parse dictionary: %v", err)
		return
	}

	screen := &headlessScreen{}
	input := &headlessInput{}
	codec := zquetzal.NewCodec(mem)
	cpu := zcpu.New(mem, alphabets, dict, screen, input, headlessAudio{}, headlessFilesystem{}, codec, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cpu.Run(ctx); err != nil && ctx.Err() == nil {
		result.ErrorMessage = err.Error()
		return
	}
	if ctx.Err() != nil && input.calls == 0 {
		result.ErrorMessage = "Timeout waiting for first screen"
		return
	}

	result.Success = true
	result.FirstScreen = screen.lines()
	return
}
