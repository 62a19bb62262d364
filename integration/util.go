//go:build integration
// +build integration

package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/wavelink/docpublish/network"
	"github.com/wavelink/docpublish/publish"
)

var logger = log.NewLogger()

func checksumOf(bytes []byte) string {
	hash := sha256.New()
	hash.Write(bytes)
	return hex.EncodeToString(hash.Sum(nil))
}

type storedObject struct {
	contentType string
	data        []byte
}

// documentServer plays both the application server and the object store. Object store URLs are
// signed with an HMAC over method, path and expiry, the way a storage provider would check them.
type documentServer struct {
	*httptest.Server

	contract  network.LinkContract
	secret    []byte
	ttl       time.Duration
	putStatus int

	mu        sync.Mutex
	objects   map[string]storedObject
	records   []network.Document
	requestID map[string][]string
}

func newDocumentServer(contract network.LinkContract) *documentServer {
	s := &documentServer{
		contract:  contract,
		secret:    []byte("integration-secret"),
		ttl:       15 * time.Minute,
		objects:   map[string]storedObject{},
		requestID: map[string][]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/get-upload-link", s.handleUploadLink)
	mux.HandleFunc("POST /api/record-document", s.handleRecord)
	mux.HandleFunc("GET /api/get-documents", s.handleDocuments)
	mux.HandleFunc("POST /api/get-download-link", s.handleDownloadLink)
	mux.HandleFunc("PUT /storage/", s.handlePut)
	mux.HandleFunc("GET /storage/", s.handleGet)
	s.Server = httptest.NewServer(mux)

	return s
}

func (s *documentServer) sign(method, objectPath string) string {
	expires := strconv.FormatInt(time.Now().Add(s.ttl).Unix(), 10)
	query := url.Values{}
	query.Set("expires", expires)
	query.Set("signature", s.signature(method, objectPath, expires))
	return s.URL + objectPath + "?" + query.Encode()
}

func (s *documentServer) signature(method, objectPath, expires string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(method + "\n" + objectPath + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *documentServer) verify(r *http.Request) bool {
	expires := r.URL.Query().Get("expires")
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || time.Now().Unix() > unix {
		return false
	}
	expected := s.signature(r.Method, r.URL.EscapedPath(), expires)
	return hmac.Equal([]byte(expected), []byte(r.URL.Query().Get("signature")))
}

func (s *documentServer) trackRequestID(call string, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestID[call] = append(s.requestID[call], r.Header.Get("X-Request-ID"))
}

func (s *documentServer) handleUploadLink(w http.ResponseWriter, r *http.Request) {
	s.trackRequestID("get-upload-link", r)

	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename is required"})
		return
	}

	objectPath := "/storage/uploads/" + url.PathEscape(req.Filename)
	signed := s.sign(http.MethodPut, objectPath)

	if s.contract == network.ContractSignedURL {
		writeJSON(w, http.StatusOK, map[string]string{"signed_url": signed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"upload_url": signed, "storage_path": objectPath})
}

func (s *documentServer) handlePut(w http.ResponseWriter, r *http.Request) {
	if !s.verify(r) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>SignatureDoesNotMatch</Code></Error>`)
		return
	}
	if s.putStatus != 0 {
		w.WriteHeader(s.putStatus)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.objects[r.URL.EscapedPath()] = storedObject{contentType: r.Header.Get("Content-Type"), data: data}
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (s *documentServer) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.verify(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	s.mu.Lock()
	object, ok := s.objects[r.URL.EscapedPath()]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", object.contentType)
	http.ServeContent(w, r, path.Base(r.URL.Path), time.Time{}, bytes.NewReader(object.data))
}

func (s *documentServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	s.trackRequestID("record-document", r)

	var doc network.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[doc.StoragePath]; !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "object not found in storage"})
		return
	}
	s.records = append(s.records, doc)
	w.WriteHeader(http.StatusCreated)
}

func (s *documentServer) handleDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	if records == nil {
		records = []network.Document{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *documentServer) handleDownloadLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoragePath string `json:"storage_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	s.mu.Lock()
	_, ok := s.objects[req.StoragePath]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": s.sign(http.MethodGet, req.StoragePath)})
}

func (s *documentServer) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *documentServer) object(objectPath string) (storedObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	object, ok := s.objects[objectPath]
	return object, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recordingSink keeps what the orchestrator reported, and logs it like the CLI does.
type recordingSink struct {
	*publish.LoggerSink

	mu       sync.Mutex
	statuses []string
	lists    [][]string
	alerts   []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{LoggerSink: publish.NewLoggerSink(logger)}
}

func (s *recordingSink) SetStatus(message string) {
	s.mu.Lock()
	s.statuses = append(s.statuses, message)
	s.mu.Unlock()
	s.LoggerSink.SetStatus(message)
}

func (s *recordingSink) RenderList(items []*publish.ListItem) {
	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label())
	}
	s.mu.Lock()
	s.lists = append(s.lists, labels)
	s.mu.Unlock()
	s.LoggerSink.RenderList(items)
}

func (s *recordingSink) Alert(message string) {
	s.mu.Lock()
	s.alerts = append(s.alerts, message)
	s.mu.Unlock()
	s.LoggerSink.Alert(message)
}

func (s *recordingSink) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}
