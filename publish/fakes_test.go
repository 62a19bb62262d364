package publish

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/wavelink/docpublish/network"
)

type mockAPI struct {
	mock.Mock

	mu         sync.Mutex
	calls      []string
	requestIDs []string
}

func (m *mockAPI) record(ctx context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	m.requestIDs = append(m.requestIDs, network.RequestIDFromContext(ctx))
}

func (m *mockAPI) RequestUploadLink(ctx context.Context, filename, contentType string) (network.UploadLink, error) {
	m.record(ctx, "RequestUploadLink")
	args := m.Called(filename, contentType)
	return args.Get(0).(network.UploadLink), args.Error(1)
}

func (m *mockAPI) PutObject(ctx context.Context, link network.UploadLink, body io.ReadSeeker, size int64, contentType string) error {
	m.record(ctx, "PutObject")
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	args := m.Called(link, string(data), size, contentType)
	return args.Error(0)
}

func (m *mockAPI) RecordDocument(ctx context.Context, doc network.Document) error {
	m.record(ctx, "RecordDocument")
	args := m.Called(doc)
	return args.Error(0)
}

func (m *mockAPI) ListDocuments(ctx context.Context) ([]network.Document, error) {
	m.record(ctx, "ListDocuments")
	args := m.Called()
	return args.Get(0).([]network.Document), args.Error(1)
}

func (m *mockAPI) RequestDownloadLink(ctx context.Context, storagePath string) (string, error) {
	m.record(ctx, "RequestDownloadLink")
	args := m.Called(storagePath)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) recordedCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type renderedItem struct {
	Label       string
	StoragePath string
}

func snapshot(item *ListItem) renderedItem {
	return renderedItem{Label: item.Label(), StoragePath: item.StoragePath()}
}

type recordingSink struct {
	mu       sync.Mutex
	statuses []string
	lists    [][]renderedItem
	rendered [][]*ListItem
	updates  []renderedItem
	alerts   []string
}

func (s *recordingSink) SetStatus(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, message)
}

func (s *recordingSink) RenderList(items []*ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []renderedItem
	for _, item := range items {
		list = append(list, snapshot(item))
	}
	s.lists = append(s.lists, list)
	s.rendered = append(s.rendered, items)
}

func (s *recordingSink) UpdateItem(item *ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, snapshot(item))
}

func (s *recordingSink) Alert(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, message)
}

func (s *recordingSink) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

type recordingSurface struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSurface) SetUploadEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		s.events = append(s.events, "enabled")
	} else {
		s.events = append(s.events, "disabled")
	}
}

func (s *recordingSurface) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "cleared")
}

type fakeOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *fakeOpener) Open(_ context.Context, url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.err
}

type fakeDownloader struct {
	url  string
	dest string
}

func (d *fakeDownloader) DownloadObject(_ context.Context, url, dest string) error {
	d.url = url
	d.dest = dest
	return nil
}
