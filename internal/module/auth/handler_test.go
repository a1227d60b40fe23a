package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
)

// mockService implements Service for handler testing.
type mockService struct {
	session   *domain.Session
	loginErr  error
	logoutErr error
	forgotErr error
	resetErr  error

	loggedOut []string
	reset     domain.PasswordReset
}

func (m *mockService) Login(context.Context, string, string, string) (*domain.Session, error) {
	return m.session, m.loginErr
}

func (m *mockService) Logout(_ context.Context, clientID string) error {
	m.loggedOut = append(m.loggedOut, clientID)
	return m.logoutErr
}

func (m *mockService) ForgotPassword(context.Context, string) error { return m.forgotErr }

func (m *mockService) ResetPassword(_ context.Context, req domain.PasswordReset) error {
	m.reset = req
	return m.resetErr
}

// asClient stands in for ClientIdentity and LoadSession.
func asClient(id string, s *domain.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetClientID(c, id)
		middleware.SetSession(c, s)
		c.Next()
	}
}

func setupAuthRouter(svc Service, s *domain.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asClient("client-1", s))
	NewModule(NewHandler(svc), NewAuthPageHandler(svc)).RegisterRoutes(r.Group("/api/v1"), r.Group("/"))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login_Success(t *testing.T) {
	r := setupAuthRouter(&mockService{session: testSession}, nil)

	w := postJSON(r, "/api/v1/auth/login", `{"email":"sita@example.com","password":"secret1234"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Code int             `json:"code"`
		Data SessionResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data.User.Name != "Sita" {
		t.Errorf("user = %+v", resp.Data.User)
	}
	if strings.Contains(w.Body.String(), "tok-1") {
		t.Error("bearer token must not be returned to the browser")
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		svc        *mockService
		body       string
		wantStatus int
	}{
		{"malformed json", &mockService{}, `{"email":`, http.StatusBadRequest},
		{"invalid email", &mockService{}, `{"email":"nope","password":"x"}`, http.StatusUnprocessableEntity},
		{"rejected", &mockService{loginErr: domain.NewAppError(domain.CodeUnauthorized, invalidCredentials, nil)}, `{"email":"a@b.example","password":"x"}`, http.StatusUnauthorized},
		{"api down", &mockService{loginErr: domain.ErrUnavailable}, `{"email":"a@b.example","password":"x"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(setupAuthRouter(tt.svc, nil), "/api/v1/auth/login", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAuthHandler_Login_FieldErrors(t *testing.T) {
	w := postJSON(setupAuthRouter(&mockService{}, nil), "/api/v1/auth/login", `{"email":"","password":""}`)
	var resp pkg.ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := resp.Errors["email"]; !ok {
		t.Errorf("errors = %v; want email", resp.Errors)
	}
	if _, ok := resp.Errors["password"]; !ok {
		t.Errorf("errors = %v; want password", resp.Errors)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &mockService{}
	w := postJSON(setupAuthRouter(svc, testSession), "/api/v1/auth/logout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "client-1" {
		t.Errorf("logged out = %v", svc.loggedOut)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	tests := []struct {
		name       string
		session    *domain.Session
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"logged in", testSession, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			setupAuthRouter(&mockService{}, tt.session).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
