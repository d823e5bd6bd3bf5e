package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

type stubVerifier struct {
	session services.Session
	err     error
}

func (s *stubVerifier) Verify(token string) (services.Session, error) {
	if s.err != nil {
		return services.Session{}, s.err
	}
	return s.session, nil
}

func userVerifier(userID uint) *stubVerifier {
	return &stubVerifier{session: services.Session{UserID: userID, Email: "user@example.com"}}
}

func adminVerifier(userID uint) *stubVerifier {
	return &stubVerifier{session: services.Session{UserID: userID, Email: "admin@example.com", IsAdmin: true}}
}

func rejectingVerifier() *stubVerifier {
	return &stubVerifier{err: errors.New("bad token")}
}

func jsonRequest(t *testing.T, method string, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSessionCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "test-token"})
	return req
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	return gin.New()
}
