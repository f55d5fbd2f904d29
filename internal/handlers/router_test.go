package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ai-scribe-server/internal/routes"
	"ai-scribe-server/internal/storage"
	"ai-scribe-server/internal/testutil"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.Store
	stub   *testutil.StubAI
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	stub := &testutil.StubAI{}

	router := gin.New()
	routes.SetupRoutes(router, db, store, stub, zap.NewNop())

	return &testApp{router: router, db: db, store: store, stub: stub}
}

// envelope mirrors utils.ResponseData for decoding responses.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	}
	return w, env
}

// performRaw serves a request without decoding the body, for streaming routes.
func performRaw(a *testApp, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	buf, err := json.Marshal(payload)
	require.NoError(t, err)
	return a.do(t, method, path, bytes.NewReader(buf), "application/json")
}

// multipartBody builds a multipart form with text fields and an optional file.
func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("audioFile", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func createPatient(t *testing.T, a *testApp, businessID string) string {
	t.Helper()
	w, env := a.doJSON(t, http.MethodPost, "/api/patients", gin.H{
		"name":        "Sarah Johnson",
		"dateOfBirth": "1985-03-15",
		"patientId":   businessID,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var patient struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &patient))
	require.NotEmpty(t, patient.ID)
	return patient.ID
}
