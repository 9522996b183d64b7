package cv

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/shared/model"
)

func serve(mux *http.ServeMux, p *access.Principal, req *http.Request) *httptest.ResponseRecorder {
	if p != nil {
		req = req.WithContext(access.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, field, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest("POST", "/api/v1/cvs/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerUploadAndDownload(t *testing.T) {
	svc, store, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	content := []byte("%PDF-1.4 resume")
	rec := serve(mux, seeker, multipartRequest(t, "file", "resume.pdf", content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cv model.CV
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cv))
	assert.True(t, cv.IsDefault)
	assert.Equal(t, "resume.pdf", cv.FileName)
	assert.Equal(t, int64(len(content)), cv.FileSize)

	rec = serve(mux, seeker, httptest.NewRequest("GET", "/api/v1/cvs/"+cv.ID+"/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, `attachment; filename="resume.pdf"`, rec.Header().Get("Content-Disposition"))

	rec = serve(mux, seeker, httptest.NewRequest("GET", "/api/v1/cvs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.CV
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = serve(mux, seeker, httptest.NewRequest("PUT", "/api/v1/cvs/"+cv.ID+"/metadata", strings.NewReader(`{"title":"Main"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Main"`)

	rec = serve(mux, seeker, httptest.NewRequest("DELETE", "/api/v1/cvs/"+cv.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, seeker, httptest.NewRequest("GET", "/api/v1/cvs/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUploadErrors(t *testing.T) {
	svc, store, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	tests := []struct {
		name     string
		field    string
		file     string
		content  []byte
		wantCode int
	}{
		{"缺少文件字段", "", "", nil, http.StatusBadRequest},
		{"空文件", "file", "resume.pdf", []byte{}, http.StatusBadRequest},
		{"不支持的类型", "file", "resume.png", []byte("png"), http.StatusBadRequest},
		{"超过大小限制", "file", "resume.pdf", bytes.Repeat([]byte("a"), MaxFileSize+1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, seeker, multipartRequest(t, tt.field, tt.file, tt.content))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec := serve(mux, nil, multipartRequest(t, "file", "resume.pdf", []byte("x")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerBuild(t *testing.T) {
	svc, store, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	rec := serve(mux, seeker, httptest.NewRequest("POST", "/api/v1/cvs/build",
		strings.NewReader(`{"fullName":"Alice","skills":"Go"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cv model.CV
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cv))
	assert.Equal(t, "cv_Alice.txt", cv.FileName)

	rec = serve(mux, seeker, httptest.NewRequest("PUT", "/api/v1/cvs/"+cv.ID+"/default", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isDefault":true`)
}
