package network

import (
	"context"
	"io"
)

// API is the application server and object store surface the publishing flow depends on.
type API interface {
	RequestUploadLink(ctx context.Context, filename, contentType string) (UploadLink, error)
	PutObject(ctx context.Context, link UploadLink, body io.ReadSeeker, size int64, contentType string) error
	RecordDocument(ctx context.Context, doc Document) error
	ListDocuments(ctx context.Context) ([]Document, error)
	RequestDownloadLink(ctx context.Context, storagePath string) (string, error)
}

// Downloader ...
type Downloader interface {
	DownloadObject(ctx context.Context, url, dest string) error
}
