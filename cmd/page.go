package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/shopshield/internal/platform"
	_ "github.com/mj1618/shopshield/internal/platform/htmldom"
)

// defaultPageURL is used when --url is not given.
const defaultPageURL = "https://localhost/"

// loadPage reads markup from path ("-" for stdin) and loads it as a page.
func loadPage(ctx context.Context, path, pageURL string) (platform.Page, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		r = f
	}
	if pageURL == "" {
		pageURL = defaultPageURL
	}
	return provider.Loader.Load(ctx, r, pageURL)
}

// writePage renders page markup to path.
func writePage(page platform.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render page: %w", err)
	}
	return f.Close()
}
