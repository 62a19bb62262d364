package publish

import (
	"context"
)

const (
	emptyListLabel = "No documents uploaded yet."
	listErrorLabel = "Could not load documents."
)

// ListDocuments renders the documents of the application server, one link per document in server order.
// An empty result renders a single placeholder, a failure renders a single inline error placeholder.
func (o *Orchestrator) ListDocuments(ctx context.Context) error {
	documents, err := o.api.ListDocuments(ctx)
	if err != nil {
		o.logger.Debugf("List documents: %s", err)
		o.sink.RenderList([]*ListItem{newPlaceholderItem(listErrorLabel)})
		return err
	}

	if len(documents) == 0 {
		o.sink.RenderList([]*ListItem{newPlaceholderItem(emptyListLabel)})
		return nil
	}

	items := make([]*ListItem, 0, len(documents))
	for _, document := range documents {
		items = append(items, NewDocumentItem(document.Filename, document.StoragePath))
	}
	o.sink.RenderList(items)

	return nil
}
