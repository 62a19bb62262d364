package publish

import (
	"sync"

	"github.com/bitrise-io/go-utils/v2/log"
)

// StatusSink shows the progress of the flows to the user.
type StatusSink interface {
	// SetStatus replaces the single status line.
	SetStatus(message string)
	// RenderList replaces the document list.
	RenderList(items []*ListItem)
	// UpdateItem redraws one item of the rendered list.
	UpdateItem(item *ListItem)
	// Alert reports a failure that doesn't belong to the status line.
	Alert(message string)
}

// SelectionSurface is where the user picks files and triggers the upload.
type SelectionSurface interface {
	SetUploadEnabled(enabled bool)
	ClearSelection()
}

// ListItem is one entry of the rendered document list: a document link or a placeholder.
// Its label and in-flight state belong to the item, so downloads of different items never share state.
type ListItem struct {
	mu          sync.Mutex
	label       string
	storagePath string
	busy        bool
}

// NewDocumentItem returns a link to the document stored at storagePath.
func NewDocumentItem(label, storagePath string) *ListItem {
	return &ListItem{label: label, storagePath: storagePath}
}

func newPlaceholderItem(label string) *ListItem {
	return &ListItem{label: label}
}

// Label ...
func (i *ListItem) Label() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.label
}

// StoragePath is empty for placeholders.
func (i *ListItem) StoragePath() string {
	return i.storagePath
}

// IsPlaceholder ...
func (i *ListItem) IsPlaceholder() bool {
	return i.storagePath == ""
}

// begin swaps the label for progressLabel and returns the func that restores it.
// It returns false if the item is already busy.
func (i *ListItem) begin(progressLabel string) (func(), bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.busy {
		return nil, false
	}

	original := i.label
	i.label = progressLabel
	i.busy = true

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		i.label = original
		i.busy = false
	}, true
}

// LoggerSink writes status, list and alerts through a log.Logger.
type LoggerSink struct {
	logger log.Logger
	mu     sync.Mutex
}

// NewLoggerSink ...
func NewLoggerSink(logger log.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// SetStatus ...
func (s *LoggerSink) SetStatus(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Infof("%s", message)
}

// RenderList ...
func (s *LoggerSink) RenderList(items []*ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Println()
	for _, item := range items {
		if item.IsPlaceholder() {
			s.logger.Printf("  %s", item.Label())
			continue
		}
		s.logger.Printf("- %s (%s)", item.Label(), item.StoragePath())
	}
	s.logger.Println()
}

// UpdateItem ...
func (s *LoggerSink) UpdateItem(item *ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debugf("%s: %s", item.StoragePath(), item.Label())
}

// Alert ...
func (s *LoggerSink) Alert(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Errorf("%s", message)
}

type logSurface struct {
	logger log.Logger
}

// NewLogSurface returns a SelectionSurface for front ends without controls, state changes are only logged.
func NewLogSurface(logger log.Logger) SelectionSurface {
	return logSurface{logger: logger}
}

func (s logSurface) SetUploadEnabled(enabled bool) {
	s.logger.Debugf("Upload enabled: %t", enabled)
}

func (s logSurface) ClearSelection() {
	s.logger.Debugf("Selection cleared")
}
