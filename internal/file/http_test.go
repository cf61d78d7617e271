package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abduss/filegate/internal/staging"
	"github.com/abduss/filegate/internal/storage"
	"github.com/abduss/filegate/internal/storage/storagetest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router *gin.Engine
	store  *storagetest.Memory
	stager *staging.Stager
}

func newTestAPI(t *testing.T, svcOpts Options, opts HandlerOptions) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, store, stager := newTestService(t, svcOpts)

	pageDir := t.TempDir()
	notFound := filepath.Join(pageDir, "file-notfound.html")
	require.NoError(t, os.WriteFile(notFound, []byte("<h1>File not found</h1>"), 0o600))
	if opts.NotFoundPage == "" {
		opts.NotFoundPage = notFound
	}
	if opts.Developer == "" {
		opts.Developer = "Sazumi Viki"
	}

	r := gin.New()
	RegisterRoutes(r, service, opts)
	return &testAPI{router: r, store: store, stager: stager}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "ignored"))
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com"+path, nil))
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestUploadListFetchRoundTrip(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})

	rr := api.upload(t, "fileInput", "a.txt", []byte("hello world"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	receipt := decodeJSON(t, rr)
	assert.Equal(t, "Sazumi Viki", receipt["Developer"])
	assert.Equal(t, "success", receipt["status"])
	assert.Regexp(t, `^\d+ms$`, receipt["response"])
	assert.Equal(t, "text/plain", receipt["type"])
	assert.Equal(t, "text/plain", receipt["mimetype"])
	assert.Equal(t, "0.01 KB", receipt["file_size"])
	assert.Regexp(t, `^https://example\.com/file/[a-z0-9]{6}\.txt$`, receipt["url_response"])
	requireScratchEmpty(t, api.stager)

	name := strings.TrimPrefix(receipt["url_response"].(string), "https://example.com/file/")

	rr = api.get("/files")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalFiles":1,"totalSize":11}`, rr.Body.String())

	rr = api.get("/file/" + name)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "hello world", rr.Body.String())
}

func TestTenByteTextFileScenario(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	content := []byte("0123456789")

	rr := api.upload(t, "fileInput", "a.txt", content)
	require.Equal(t, http.StatusOK, rr.Code)
	receipt := decodeJSON(t, rr)
	assert.Equal(t, "0.01 KB", receipt["file_size"])
	assert.Equal(t, "text/plain", receipt["type"])

	path := strings.TrimPrefix(receipt["url_response"].(string), "https://example.com")
	for i := 0; i < 2; i++ {
		rr = api.get(path)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
		assert.Equal(t, content, rr.Body.Bytes())
	}
	assert.Equal(t, 1, api.store.Len())
}

func TestReceiptKeepsFieldOrderAndIndent(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})

	rr := api.upload(t, "fileInput", "a.txt", []byte("hello world"))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.HasPrefix(body, "{\n  \"Developer\": \"Sazumi Viki\",\n  \"status\": \"success\",\n"), body)

	keys := []string{`"Developer"`, `"status"`, `"response"`, `"type"`, `"mimetype"`, `"file_size"`, `"url_response"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(body, k)
		require.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
}

func TestUploadWithoutFile(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})

	rr := api.upload(t, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "{\n  \"error\": \"No file uploaded.\"\n}", rr.Body.String())

	rr = api.upload(t, "otherField", "a.txt", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"No file uploaded."}`, rr.Body.String())

	assert.Equal(t, 0, api.store.Len())
}

func TestUploadSizeLimit(t *testing.T) {
	api := newTestAPI(t, Options{MaxFileSize: 32}, HandlerOptions{})

	rr := api.upload(t, "fileInput", "limit.bin", bytes.Repeat([]byte("a"), 32))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.upload(t, "fileInput", "over.bin", bytes.Repeat([]byte("a"), 33))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Error: File max upload 50mb"}`, rr.Body.String())

	assert.Equal(t, 1, api.store.Len())
	requireScratchEmpty(t, api.stager)
}

func TestUploadHonoursConfiguredFieldAndScheme(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{FieldName: "file", PublicScheme: "http"})

	rr := api.upload(t, "file", "pic.PNG", []byte{0x89, 'P', 'N', 'G'})
	require.Equal(t, http.StatusOK, rr.Code)

	receipt := decodeJSON(t, rr)
	assert.Equal(t, "image/png", receipt["type"])
	assert.Regexp(t, `^http://example\.com/file/[a-z0-9]{6}\.PNG$`, receipt["url_response"])
}

func TestUploadStoreFailure(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.PutErr = fmt.Errorf("put object: %w", storage.ErrStoreUnavailable)

	rr := api.upload(t, "fileInput", "a.txt", []byte("hello"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Oops something went wrong"}`, rr.Body.String())
	requireScratchEmpty(t, api.stager)
}

func TestListingFailure(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.ListErr = fmt.Errorf("list objects: %w", storage.ErrStoreUnavailable)

	rr := api.get("/files")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Oops something went wrong"}`, rr.Body.String())
}

func TestListingPurgesOversized(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.SeedSize("big.mp4", 52_428_801)
	api.store.Seed("a.txt", []byte("hello world"), "text/plain")

	rr := api.get("/files")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalFiles":2,"totalSize":52428812}`, rr.Body.String())
	assert.False(t, api.store.Has("big.mp4"))

	rr = api.get("/files")
	assert.JSONEq(t, `{"totalFiles":1,"totalSize":11}`, rr.Body.String())
}

func TestFetchMissingServesNotFoundPage(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})

	rr := api.get("/file/zzzzzz.png")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<h1>File not found</h1>", rr.Body.String())
}

func TestFetchMissingPageFallsBackToText(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{NotFoundPage: filepath.Join(t.TempDir(), "absent.html")})

	rr := api.get("/file/zzzzzz.png")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "File not found", rr.Body.String())
}

func TestFetchStoreErrorIsLossyByDefault(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.Seed("abc123.txt", []byte("x"), "text/plain")
	api.store.GetErr = fmt.Errorf("get object: %w", storage.ErrStoreUnavailable)

	rr := api.get("/file/abc123.txt")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "<h1>File not found</h1>", rr.Body.String())
}

func TestFetchStoreErrorInStrictMode(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{StrictFetch: true})
	api.store.GetErr = fmt.Errorf("get object: %w", storage.ErrStoreUnavailable)

	rr := api.get("/file/abc123.txt")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"Oops something went wrong"}`, rr.Body.String())

	api.store.GetErr = nil
	rr = api.get("/file/abc123.txt")
	assert.Equal(t, http.StatusNotFound, rr.Code, "missing keys still get the page in strict mode")
}

func TestFetchWithoutStoredContentType(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.Seed("raw", []byte{0, 1, 2}, "")

	rr := api.get("/file/raw")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0, 1, 2}, rr.Body.Bytes())
}

func TestFetchStreamsBodyOfUnknownLength(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.Seed("abc123.txt", []byte("0123456789"), "text/plain")
	api.store.UnknownSize = true

	rr := api.get("/file/abc123.txt")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Content-Length"))
	assert.Equal(t, "0123456789", rr.Body.String())
}

func TestFetchAnswersHead(t *testing.T) {
	api := newTestAPI(t, Options{}, HandlerOptions{})
	api.store.Seed("abc123.txt", []byte("0123456789"), "text/plain")

	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/file/abc123.txt", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "10", rr.Header().Get("Content-Length"))
	assert.Empty(t, rr.Body.String())

	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/file/zzzzzz.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
