package network

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/melbahja/got"
)

// DownloadObject fetches the object behind a signed download URL into dest.
func (c *Client) DownloadObject(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	c.logger.Debugf("Downloading object to %s", dest)

	downloader := got.New()
	downloader.Client = c.httpClient.StandardClient()

	if err := downloader.Do(got.NewDownload(ctx, url, dest)); err != nil {
		return fmt.Errorf("download object: %w", RedactError(err))
	}

	return nil
}
