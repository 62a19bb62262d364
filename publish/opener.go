package publish

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/wavelink/docpublish/network"
)

// LinkOpener does something with a signed download URL. The URL embeds credentials, don't log it.
type LinkOpener interface {
	Open(ctx context.Context, url string) error
}

// BrowserOpener opens the URL in a new browser window or tab.
type BrowserOpener struct{}

// Open ...
func (BrowserOpener) Open(_ context.Context, url string) error {
	return network.RedactError(browser.OpenURL(url))
}

// FileSaver downloads the object behind the URL into Dir, named after the last element of the URL path.
type FileSaver struct {
	Downloader network.Downloader
	Dir        string
}

// Open ...
func (s FileSaver) Open(ctx context.Context, rawURL string) error {
	name, err := objectName(rawURL)
	if err != nil {
		return err
	}
	return s.Downloader.DownloadObject(ctx, rawURL, filepath.Join(s.Dir, name))
}

func objectName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		// the parse error quotes the whole URL, signature included
		return "", fmt.Errorf("invalid download URL")
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("download URL has no object name")
	}
	return name, nil
}
