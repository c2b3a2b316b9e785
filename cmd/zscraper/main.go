// Command zscraper downloads every Z-code story listed on the IF Archive
// into a local directory, for zgametest (and manual play) to use as a
// story corpus.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

func main() {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "zscraper",
		Short: "Download Z-code stories from the IF Archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scrape(outputDir)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", "stories", "Directory to download stories into")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type game struct {
	name string
	url  string
}

func scrape(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	c := &http.Client{Timeout: 30 * time.Second}
	res, err := c.Get(indexURL)
	if err != nil {
		return fmt.Errorf("fetching index: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode != 200 {
		return fmt.Errorf("bad status code: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return fmt.Errorf("parsing HTML: %w", err)
	}

	var games []game
	doc.Find("dl dt").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists {
			return
		}

		match, _ := regexp.Match(`.*\.z[12345678]$`, []byte(href))
		if match {
			games = append(games, game{
				name: filepath.Base(href),
				url:  "https://www.ifarchive.org" + href,
			})
		}
	})

	fmt.Printf("Found %d games to download\n", len(games))

	downloaded, skipped, failed := 0, 0, 0
	for i, g := range games {
		destPath := filepath.Join(outputDir, g.name)

		if _, err := os.Stat(destPath); err == nil {
			fmt.Printf("[%d/%d] Skipping %s (already exists)\n", i+1, len(games), g.name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] Downloading %s... ", i+1, len(games), g.name)

		resp, err := c.Get(g.url)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		if resp.StatusCode != 200 {
			fmt.Printf("FAILED: status %d\n", resp.StatusCode)
			resp.Body.Close() //nolint:errcheck
			failed++
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		if err := os.WriteFile(destPath, data, 0644); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		fmt.Printf("OK (%d bytes)\n", len(data))
		downloaded++

		time.Sleep(100 * time.Millisecond)
	}

	fmt.Printf("\nDone! Downloaded: %d, Skipped: %d, Failed: %d\n", downloaded, skipped, failed)

	manifestPath := filepath.Join(outputDir, "manifest.txt")
	var manifest strings.Builder
	for _, g := range games {
		manifest.WriteString(g.name + "\n")
	}
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Printf("Wrote manifest to %s\n", manifestPath)
	return nil
}
