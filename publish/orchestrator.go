package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/wavelink/docpublish/network"
)

// Status messages of the upload flow, in the order they are shown.
const (
	msgSelectPrompt   = "Please select a file..."
	msgStarting       = "Starting upload process..."
	msgRequestingLink = "Asking our server for permission to upload..."
	msgUploading      = "Permission granted. Uploading file to storage..."
	msgUploaded       = "File uploaded successfully!"
	msgRecording      = "Saving file record to our database..."
	msgDone           = "All done! File record saved."
)

var (
	// ErrNoFileSelected is returned by Upload when there is nothing to upload.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrUploadInProgress is returned by Upload while another upload runs.
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// Orchestrator drives the upload, list and download flows of the document publisher.
type Orchestrator struct {
	api     network.API
	sink    StatusSink
	surface SelectionSurface
	opener  LinkOpener
	logger  log.Logger

	mu        sync.Mutex
	selected  *SelectedFile
	uploading bool
}

// NewOrchestrator creates a new orchestrator. `surface` and `opener` can be nil,
// a logging surface and the browser opener are used then.
func NewOrchestrator(api network.API, sink StatusSink, surface SelectionSurface, opener LinkOpener, logger log.Logger) *Orchestrator {
	if surface == nil {
		surface = NewLogSurface(logger)
	}
	if opener == nil {
		opener = BrowserOpener{}
	}
	return &Orchestrator{
		api:     api,
		sink:    sink,
		surface: surface,
		opener:  opener,
		logger:  logger,
	}
}

// Select makes file the current selection. A nil file clears the selection.
func (o *Orchestrator) Select(file *SelectedFile) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if file == nil || file.Name == "" {
		o.selected = nil
		o.sink.SetStatus(msgSelectPrompt)
		if !o.uploading {
			o.surface.SetUploadEnabled(false)
		}
		return
	}

	selected := *file
	o.selected = &selected
	o.sink.SetStatus(fmt.Sprintf("Selected file: %s (%s)", file.Name, units.HumanSize(float64(file.Size))))
	o.logger.Debugf("Selected %s (%s)", file.Name, file.ContentType)
	if !o.uploading {
		o.surface.SetUploadEnabled(true)
	}
}

// Upload publishes the selected file: upload link, storage upload, then the document record.
// The upload trigger is disabled while it runs, afterwards it is re-enabled and the selection is cleared,
// whatever the outcome. Failures are reported on the status line and returned.
func (o *Orchestrator) Upload(ctx context.Context) error {
	file, err := o.beginUpload()
	if err != nil {
		return err
	}
	defer o.finishUpload()

	o.sink.SetStatus(msgStarting)

	ctx = network.WithRequestID(ctx, uuid.NewString())
	if err := o.upload(ctx, file); err != nil {
		o.sink.SetStatus(fmt.Sprintf("An error occurred: %s", err))
		return fmt.Errorf("upload %s: %w", file.Name, err)
	}

	if err := o.ListDocuments(ctx); err != nil {
		o.logger.Warnf("Failed to refresh documents: %s", err)
	}
	o.sink.SetStatus(msgDone)

	return nil
}

func (o *Orchestrator) upload(ctx context.Context, file SelectedFile) error {
	o.sink.SetStatus(msgRequestingLink)
	link, err := o.api.RequestUploadLink(ctx, file.Name, file.ContentType)
	if err != nil {
		return err
	}

	o.sink.SetStatus(msgUploading)
	if err := o.putObject(ctx, file, link); err != nil {
		return err
	}
	o.sink.SetStatus(msgUploaded)

	o.sink.SetStatus(msgRecording)
	return o.api.RecordDocument(ctx, network.Document{
		Filename:    file.Name,
		StoragePath: link.StoragePath,
	})
}

func (o *Orchestrator) putObject(ctx context.Context, file SelectedFile, link network.UploadLink) error {
	content, err := file.Open()
	if err != nil {
		return &network.StepError{Step: network.ErrStorageUploadFailed, Err: err}
	}
	defer func() {
		if err := content.Close(); err != nil {
			o.logger.Warnf("Failed to close %s: %s", file.Name, err)
		}
	}()

	// the file may have changed since it was selected, Content-Length must match what is sent
	size, err := contentSize(content)
	if err != nil {
		return &network.StepError{Step: network.ErrStorageUploadFailed, Err: err}
	}
	if size != file.Size {
		o.logger.Warnf("%s changed since it was selected, uploading %s", file.Name, units.HumanSize(float64(size)))
	}

	return o.api.PutObject(ctx, link, content, size, file.ContentType)
}

func contentSize(content io.Seeker) (int64, error) {
	size, err := content.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measure content: %w", err)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind content: %w", err)
	}
	return size, nil
}

func (o *Orchestrator) beginUpload() (SelectedFile, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.uploading {
		return SelectedFile{}, ErrUploadInProgress
	}
	if o.selected == nil {
		return SelectedFile{}, ErrNoFileSelected
	}

	o.uploading = true
	o.surface.SetUploadEnabled(false)

	return *o.selected, nil
}

func (o *Orchestrator) finishUpload() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.uploading = false
	o.selected = nil
	o.surface.SetUploadEnabled(true)
	o.surface.ClearSelection()
}
