package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

const requestIDHeader = "X-Request-ID"

// Endpoints holds the application server paths, relative to the base URL.
type Endpoints struct {
	UploadLink     string
	RecordDocument string
	Documents      string
	DownloadLink   string
}

// DefaultEndpoints ...
func DefaultEndpoints() Endpoints {
	return Endpoints{
		UploadLink:     "/api/get-upload-link",
		RecordDocument: "/api/record-document",
		Documents:      "/api/get-documents",
		DownloadLink:   "/api/get-download-link",
	}
}

// withDefaults fills the empty paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	defaults := DefaultEndpoints()
	if e.UploadLink == "" {
		e.UploadLink = defaults.UploadLink
	}
	if e.RecordDocument == "" {
		e.RecordDocument = defaults.RecordDocument
	}
	if e.Documents == "" {
		e.Documents = defaults.Documents
	}
	if e.DownloadLink == "" {
		e.DownloadLink = defaults.DownloadLink
	}
	return e
}

// Document is the metadata record the application server keeps for an uploaded file.
type Document struct {
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
}

// UploadLink is a signed upload URL together with the storage path it writes to.
// URL embeds credentials: use it once and never log it.
type UploadLink struct {
	URL         string
	StoragePath string
}

type uploadLinkRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
}

type uploadLinkResponse struct {
	SignedURL   string `json:"signed_url"`
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

type downloadLinkRequest struct {
	StoragePath string `json:"storage_path"`
}

type downloadLinkResponse struct {
	DownloadURL string `json:"download_url"`
}

// ClientParams ...
type ClientParams struct {
	BaseURL   string
	Endpoints Endpoints
	Contract  LinkContract
	// HTTPClient can be nil, NewHTTPClient is used then.
	HTTPClient *retryablehttp.Client
}

// Client talks to the application server and to the object store behind the signed URLs it issues.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	endpoints  Endpoints
	contract   LinkContract
	logger     log.Logger
}

// NewClient ...
func NewClient(params ClientParams, logger log.Logger) (*Client, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(params.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("API base URL is empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	contract := params.Contract
	if contract == "" {
		contract = ContractExplicit
	}
	if err := contract.Validate(); err != nil {
		return nil, err
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(logger)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		endpoints:  params.Endpoints.withDefaults(),
		contract:   contract,
		logger:     logger,
	}, nil
}

// RequestUploadLink asks the application server for a signed upload URL for filename.
func (c *Client) RequestUploadLink(ctx context.Context, filename, contentType string) (UploadLink, error) {
	var response uploadLinkResponse
	err := c.postJSON(ctx, c.endpoints.UploadLink, uploadLinkRequest{
		Filename:    filename,
		ContentType: contentType,
	}, &response)
	if err != nil {
		return UploadLink{}, newStepError(ErrLinkRequestFailed, err)
	}

	link, err := c.contract.resolve(response)
	if err != nil {
		return UploadLink{}, newStepError(ErrLinkRequestFailed, err)
	}
	c.logger.Debugf("Upload link issued for storage path: %s", link.StoragePath)

	return link, nil
}

// PutObject uploads the raw bytes of body to the signed URL of link.
func (c *Client) PutObject(ctx context.Context, link UploadLink, body io.ReadSeeker, size int64, contentType string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, link.URL, body)
	if err != nil {
		return newStepError(ErrStorageUploadFailed, RedactError(err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// retryablehttp can't tell the length of a plain io.ReadSeeker
	req.Header.Set("Content-Length", fmt.Sprintf("%d", size))
	req.ContentLength = size

	c.logger.Debugf("Uploading %d bytes to storage path: %s", size, link.StoragePath)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newStepError(ErrStorageUploadFailed, RedactError(err))
	}
	defer c.closeBody(resp.Body)

	c.logger.Debugf("Storage response: %s", resp.Status)

	if !isSuccess(resp.StatusCode) {
		return newStepError(ErrStorageUploadFailed, unwrapError(resp))
	}

	return nil
}

// RecordDocument asks the application server to persist the metadata of an uploaded file.
func (c *Client) RecordDocument(ctx context.Context, doc Document) error {
	if err := c.postJSON(ctx, c.endpoints.RecordDocument, doc, nil); err != nil {
		return newStepError(ErrRecordPersistFailed, err)
	}
	return nil
}

// ListDocuments returns every document record the application server knows about, in server order.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(c.endpoints.Documents), nil)
	if err != nil {
		return nil, newStepError(ErrListLoadFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	setRequestID(ctx, req)

	var documents []Document
	if err := c.do(req, &documents); err != nil {
		return nil, newStepError(ErrListLoadFailed, err)
	}
	if documents == nil {
		documents = []Document{}
	}

	return documents, nil
}

// RequestDownloadLink asks the application server for a signed download URL for storagePath.
func (c *Client) RequestDownloadLink(ctx context.Context, storagePath string) (string, error) {
	var response downloadLinkResponse
	err := c.postJSON(ctx, c.endpoints.DownloadLink, downloadLinkRequest{StoragePath: storagePath}, &response)
	if err != nil {
		return "", newStepError(ErrDownloadLinkFailed, err)
	}
	if response.DownloadURL == "" {
		return "", newStepError(ErrDownloadLinkFailed, fmt.Errorf("response has no download_url"))
	}

	return response.DownloadURL, nil
}

func (c *Client) postJSON(ctx context.Context, path string, requestBody interface{}, response interface{}) error {
	body, err := json.Marshal(requestBody)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	setRequestID(ctx, req)

	dump, err := httputil.DumpRequest(req.Request, false)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
	}
	c.logger.Debugf("Request dump: %s", string(dump))
	c.logger.Debugf("Request body: %s", string(body))

	return c.do(req, response)
}

// do sends req and decodes a 2xx JSON body into response, when response is not nil.
func (c *Client) do(req *retryablehttp.Request, response interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	c.logger.Debugf("%s %s: %s", req.Method, req.URL.Path, resp.Status)

	if !isSuccess(resp.StatusCode) {
		return unwrapError(resp)
	}
	if response == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) endpointURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warnf("Failed to close response body: %s", err)
	}
}
