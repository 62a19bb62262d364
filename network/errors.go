package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Each sentinel names the step of the publishing flow that failed. Match them with errors.Is.
var (
	ErrLinkRequestFailed   = errors.New("could not get upload URL from server")
	ErrStorageUploadFailed = errors.New("file upload to storage failed")
	ErrRecordPersistFailed = errors.New("could not save record to database")
	ErrListLoadFailed      = errors.New("could not load documents")
	ErrDownloadLinkFailed  = errors.New("could not get download link")
)

// StatusError is returned when a call completes with a non-2xx status.
// Message holds the error text the server sent back, if any.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// StepError ties a failure to the step sentinel it belongs to.
type StepError struct {
	Step error
	Err  error
}

func newStepError(step, err error) *StepError {
	return &StepError{Step: step, Err: err}
}

// Error returns the server provided error text when there is one, the generic step message otherwise.
func (e *StepError) Error() string {
	var statusErr *StatusError
	if errors.As(e.Err, &statusErr) {
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return e.Step.Error()
	}
	if e.Err == nil {
		return e.Step.Error()
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Step}
	}
	return []error{e.Step, e.Err}
}

// StatusCode returns the HTTP status of a failed call, or 0 when the call never got a response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func unwrapError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    serverMessage(body),
	}
}

// serverMessage only trusts JSON bodies: object stores answer with XML documents
// that are not meant for the user.
func serverMessage(body []byte) string {
	var response errorResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(response.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(response.Message)
}

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
