package publish

import (
	"context"
	"errors"
	"fmt"
)

const downloadProgressLabel = "Opening..."

var (
	// ErrNotADocument is returned when a placeholder item is clicked.
	ErrNotADocument = errors.New("list item is not a document")
	// ErrDownloadInProgress is returned while the same item is already being opened.
	ErrDownloadInProgress = errors.New("document is already being opened")
)

// Download resolves a signed download URL for the item and opens it.
// The item shows a progress label for the round trip and gets its label back afterwards, whatever the outcome.
func (o *Orchestrator) Download(ctx context.Context, item *ListItem) error {
	if item == nil || item.IsPlaceholder() {
		return ErrNotADocument
	}

	restore, ok := item.begin(downloadProgressLabel)
	if !ok {
		return ErrDownloadInProgress
	}
	o.sink.UpdateItem(item)
	defer func() {
		restore()
		o.sink.UpdateItem(item)
	}()

	url, err := o.api.RequestDownloadLink(ctx, item.StoragePath())
	if err != nil {
		o.sink.Alert(fmt.Sprintf("Could not open %s: %s", item.StoragePath(), err))
		return fmt.Errorf("download %s: %w", item.StoragePath(), err)
	}

	if err := o.opener.Open(ctx, url); err != nil {
		o.sink.Alert(fmt.Sprintf("Could not open %s: %s", item.StoragePath(), err))
		return fmt.Errorf("open %s: %w", item.StoragePath(), err)
	}

	return nil
}
