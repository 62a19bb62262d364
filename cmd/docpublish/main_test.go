package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavelink/docpublish/network"
)

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	return repo.envVars[key]
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	delete(repo.envVars, key)
	return nil
}

func (repo fakeEnvRepo) List() []string {
	var envs []string
	for k, v := range repo.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func newEnv(apiURL string) fakeEnvRepo {
	return fakeEnvRepo{envVars: map[string]string{"DOCPUBLISH_API_URL": apiURL}}
}

func TestParseConfig(t *testing.T) {
	repo := fakeEnvRepo{envVars: map[string]string{
		"DOCPUBLISH_API_URL":       "https://docs.example.com",
		"DOCPUBLISH_RECORD_PATH":   "/v2/records",
		"DOCPUBLISH_LINK_CONTRACT": "signed_url",
		"DOCPUBLISH_VERBOSE":       "true",
	}}

	config, err := parseConfig(repo)
	require.NoError(t, err)

	assert.Equal(t, Config{
		APIURL:       "https://docs.example.com",
		RecordPath:   "/v2/records",
		LinkContract: "signed_url",
		Verbose:      true,
	}, config)

	params := config.clientParams()
	assert.Equal(t, "https://docs.example.com", params.BaseURL)
	assert.Equal(t, network.ContractSignedURL, params.Contract)
	assert.Equal(t, "/v2/records", params.Endpoints.RecordDocument)
	assert.Empty(t, params.Endpoints.UploadLink)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "missing api url",
			envVars: map[string]string{},
		},
		{
			name: "unknown link contract",
			envVars: map[string]string{
				"DOCPUBLISH_API_URL":       "https://docs.example.com",
				"DOCPUBLISH_LINK_CONTRACT": "presigned",
			},
		},
		{
			name: "invalid verbose flag",
			envVars: map[string]string{
				"DOCPUBLISH_API_URL": "https://docs.example.com",
				"DOCPUBLISH_VERBOSE": "sometimes",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(fakeEnvRepo{envVars: tt.envVars})
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCPUBLISH_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("DOCPUBLISH_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("DOCPUBLISH_TEST_DOTENV"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("DOCPUBLISH_TEST_DOTENV"))
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  fakeEnvRepo
	}{
		{name: "no command", args: nil, env: newEnv("http://127.0.0.1:1")},
		{name: "missing config", args: []string{"list"}, env: fakeEnvRepo{envVars: map[string]string{}}},
		{name: "invalid api url", args: []string{"list"}, env: newEnv("not a url")},
		{name: "unknown command", args: []string{"publish"}, env: newEnv("http://127.0.0.1:1")},
		{name: "upload without paths", args: []string{"upload"}, env: newEnv("http://127.0.0.1:1")},
		{name: "list with arguments", args: []string{"list", "all"}, env: newEnv("http://127.0.0.1:1")},
		{name: "download without path", args: []string{"download"}, env: newEnv("http://127.0.0.1:1")},
		{name: "download unknown flag", args: []string{"download", "-x", "a.pdf"}, env: newEnv("http://127.0.0.1:1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(tt.args, tt.env, &stderr))
		})
	}
}

func TestRun_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/get-documents", r.URL.Path)
		_, _ = io.WriteString(w, `[{"filename":"report.pdf","storage_path":"uploads/report.pdf"}]`)
	}))
	defer srv.Close()

	assert.Equal(t, exitOK, run([]string{"list"}, newEnv(srv.URL), io.Discard))
}

func TestRun_ListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Equal(t, exitFail, run([]string{"list"}, newEnv(srv.URL), io.Discard))
}

func newUploadServer(t *testing.T, putStatus int) (*httptest.Server, *int32) {
	var recorded int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)

	mux.HandleFunc("POST /api/get-upload-link", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filename string `json:"filename"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"upload_url":   srv.URL + "/storage/" + req.Filename + "?sig=abc",
			"storage_path": "uploads/" + req.Filename,
		})
	})
	mux.HandleFunc("PUT /storage/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(putStatus)
	})
	mux.HandleFunc("POST /api/record-document", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&recorded, 1)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /api/get-documents", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	return srv, &recorded
}

func TestRun_Upload(t *testing.T) {
	srv, recorded := newUploadServer(t, http.StatusOK)
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF-1.4 a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF-1.4 b"), 0o600))

	code := run([]string{"upload", filepath.Join(dir, "*.pdf")}, newEnv(srv.URL), io.Discard)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, int32(2), atomic.LoadInt32(recorded))
}

func TestRun_UploadStorageFailure(t *testing.T) {
	srv, recorded := newUploadServer(t, http.StatusInternalServerError)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 a"), 0o600))

	code := run([]string{"upload", path}, newEnv(srv.URL), io.Discard)

	assert.Equal(t, exitFail, code)
	assert.Equal(t, int32(0), atomic.LoadInt32(recorded))
}

func TestRun_UploadNothingSelected(t *testing.T) {
	code := run([]string{"upload", filepath.Join(t.TempDir(), "missing.pdf")}, newEnv("http://127.0.0.1:1"), io.Discard)

	assert.Equal(t, exitFail, code)
}

func TestRun_DownloadToDirectory(t *testing.T) {
	content := []byte("stored document")
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /api/get-download-link", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StoragePath string `json:"storage_path"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "uploads/report.pdf", req.StoragePath)
		_ = json.NewEncoder(w).Encode(map[string]string{"download_url": srv.URL + "/storage/uploads/report.pdf?sig=abc"})
	})
	mux.HandleFunc("GET /storage/uploads/report.pdf", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "report.pdf", time.Time{}, bytes.NewReader(content))
	})

	dir := t.TempDir()
	code := run([]string{"download", "-o", dir, "uploads/report.pdf"}, newEnv(srv.URL), io.Discard)
	require.Equal(t, exitOK, code)

	got, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRun_DownloadLinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"no such document"}`)
	}))
	defer srv.Close()

	code := run([]string{"download", "-o", t.TempDir(), "uploads/missing.pdf"}, newEnv(srv.URL), io.Discard)

	assert.Equal(t, exitFail, code)
}
