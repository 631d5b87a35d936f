package files

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/domain"
	"pdfmark/internal/middleware"
	"pdfmark/internal/pkg/jwt"
	"pdfmark/internal/render/pdftest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = jwt.New("files-test-secret", time.Hour)

func newTestRouter(service *Service) *gin.Engine {
	r := gin.New()
	protected := r.Group("/api", middleware.JWTAuth(testJWT))
	NewHandler(service).RegisterRoutes(protected)
	return r
}

func bearer(t *testing.T, id domain.Identity) string {
	t.Helper()
	tok, err := testJWT.GenerateToken(id)
	require.NoError(t, err)
	return "Bearer " + tok
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	service, repo, blobs, _ := newTestService()
	doc := pdftest.Letter(1)
	blobs.On("Store", mock.Anything, doc, "a.pdf").Return("local://files/a.pdf", nil)
	repo.On("CreateRecord", mock.Anything, int64(1), "local://files/a.pdf", "a.pdf").
		Return(&domain.FileRecord{ID: 3, OwnerID: 1, DisplayName: "a.pdf", OriginalLocation: "local://files/a.pdf"}, nil)
	r := newTestRouter(service)

	body, ct := multipartBody(t, "file", "a.pdf", doc)
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"display_name":"a.pdf"`)
	assert.Contains(t, w.Body.String(), `"edited":false`)
}

func TestHandler_Upload_Rejects(t *testing.T) {
	service, _, _, _ := newTestService()
	r := newTestRouter(service)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("just text"))
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = multipartBody(t, "document", "a.pdf", pdftest.Letter(1))
	req = httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", bearer(t, alice))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/files", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Get(t *testing.T) {
	service, repo, _, _ := newTestService()
	repo.On("GetByID", mock.Anything, int64(10)).Return(aliceRecord(), nil)
	r := newTestRouter(service)

	for _, tc := range []struct {
		path   string
		id     domain.Identity
		status int
	}{
		{"/api/files/10", alice, http.StatusOK},
		{"/api/files/10", root, http.StatusOK},
		{"/api/files/10", bob, http.StatusForbidden},
		{"/api/files/abc", alice, http.StatusBadRequest},
		{"/api/files/0", alice, http.StatusBadRequest},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.id))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "%s as %s", tc.path, tc.id.Username)
	}
}

func TestHandler_Raw(t *testing.T) {
	service, repo, blobs, _ := newTestService()
	repo.On("GetByID", mock.Anything, int64(10)).Return(aliceRecord(), nil)
	blobs.On("Fetch", mock.Anything, "local://orig.pdf").Return([]byte("%PDF-1.4 raw"), nil)
	r := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/files/10/raw", nil)
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename=a.pdf`)
	assert.Equal(t, "%PDF-1.4 raw", w.Body.String())
}

func TestHandler_Edit_RenderErrorIs422(t *testing.T) {
	service, repo, blobs, _ := newTestService()
	repo.On("GetByID", mock.Anything, int64(10)).Return(aliceRecord(), nil)
	blobs.On("Fetch", mock.Anything, "local://orig.pdf").Return(pdftest.Letter(2), nil)
	r := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/files/10/edit",
		bytes.NewBufferString(`{"annotations":[{"page":5,"x":1,"y":1,"text":"late"}],"viewport":{"width":612,"height":792}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "RENDER_ERROR")
	repo.AssertNotCalled(t, "AttachEdit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Edit_BadBody(t *testing.T) {
	service, _, _, _ := newTestService()
	r := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/files/10/edit", bytes.NewBufferString(`{"annotations":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_List(t *testing.T) {
	service, repo, _, _ := newTestService()
	repo.On("ListByOwner", mock.Anything, int64(1)).Return([]*domain.FileRecord{aliceRecord()}, nil)
	repo.On("ListEditedByOwner", mock.Anything, int64(1)).Return([]*domain.FileRecord{}, nil)
	r := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", bearer(t, alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":10`)

	req = httptest.NewRequest(http.MethodGet, "/api/files/edited", nil)
	req.Header.Set("Authorization", bearer(t, alice))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"files":[]}}`, w.Body.String())
}
