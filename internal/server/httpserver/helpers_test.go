package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/auth"
	"github.com/dmitrijs2005/profilekeeper/internal/server/media"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/profilekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubService returns canned results and records what it was called with.
type stubService struct {
	loginRes    *services.AuthResult
	googleRes   *services.AuthResult
	profile     *models.PublicProfile
	err         error
	panicWith   any
	gotRegister services.RegisterInput
	gotGoogle   services.GoogleLoginInput
	gotSettings services.UpdateSettingsInput
	gotUserID   string
}

func (s *stubService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.loginRes, s.err
}

func (s *stubService) Register(ctx context.Context, in services.RegisterInput) (*models.PublicProfile, error) {
	s.gotRegister = in
	return s.profile, s.err
}

func (s *stubService) GoogleLogin(ctx context.Context, in services.GoogleLoginInput) (*services.AuthResult, error) {
	s.gotGoogle = in
	return s.googleRes, s.err
}

func (s *stubService) UpdateSettings(ctx context.Context, userID string, in services.UpdateSettingsInput) (*models.PublicProfile, error) {
	s.gotUserID = userID
	s.gotSettings = in
	return s.profile, s.err
}

var testSecret = []byte("http-test-secret")

func newTestServer(t *testing.T, us AuthService) (*Server, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	return NewServer(Options{MaxUploadSize: 1 << 20, ShutdownTimeout: time.Second}, logging.Nop{}, us, tokens), tokens
}

// newMemoryStack wires the real service over in-memory storage.
func newMemoryStack(t *testing.T) (*Server, *media.MemoryStorage) {
	t.Helper()

	storage := media.NewMemoryStorage()
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	svc := services.NewUserService(nil, repomanager.NewMemoryRepositoryManager(), auth.NewBcryptHasher(bcrypt.MinCost),
		tokens, storage, media.NewResolver("https://cdn.example.com", "profilePics"), logging.Nop{})

	gin.SetMode(gin.TestMode)
	return NewServer(Options{MaxUploadSize: 1 << 20}, logging.Nop{}, svc, tokens), storage
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func doMultipart(t *testing.T, h http.Handler, path string, fields map[string]string, file *formFile, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="profilePic"; filename="` + file.name + `"`}
		hdr["Content-Type"] = []string{file.contentType}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pngFile() *formFile {
	return &formFile{name: "me.png", contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\nfake")}
}

func doRaw(t *testing.T, s *Server, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}
