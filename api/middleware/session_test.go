package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/clickmarket/clickmarket-backend/pkg/auth"
	"github.com/clickmarket/clickmarket-backend/pkg/config"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

func sessionTestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "session-test-secret",
		Issuer:            "clickmarket-test",
		ExpirationMinutes: 15,
	}
}

func captureHandler(gotUser, gotSession *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUser = UserIDFromContext(r.Context())
		*gotSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionPrefersBearerToken(t *testing.T) {
	cfg := sessionTestJWTConfig()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleClient,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotUser, gotSession string
	req := httptest.NewRequest(http.MethodGet, "/panier", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Session-ID", "guest-session-should-lose")
	resp := httptest.NewRecorder()
	Session(cfg, nil)(captureHandler(&gotUser, &gotSession)).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user %s got %q", userID, gotUser)
	}
	if gotSession != "" {
		t.Fatalf("expected no guest session for authenticated call, got %q", gotSession)
	}
}

func TestSessionRejectsMalformedBearer(t *testing.T) {
	var gotUser, gotSession string
	req := httptest.NewRequest(http.MethodGet, "/panier", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set("X-Session-ID", "guest-session")
	resp := httptest.NewRecorder()
	Session(sessionTestJWTConfig(), nil)(captureHandler(&gotUser, &gotSession)).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if gotUser != "" || gotSession != "" {
		t.Fatalf("handler should not run on malformed bearer")
	}
}

func TestSessionHeaderWinsOverCookie(t *testing.T) {
	var gotUser, gotSession string
	req := httptest.NewRequest(http.MethodGet, "/panier", nil)
	req.Header.Set("X-Session-ID", "header-session")
	req.AddCookie(&http.Cookie{Name: "cartSessionId", Value: "cookie-session"})
	resp := httptest.NewRecorder()
	Session(sessionTestJWTConfig(), nil)(captureHandler(&gotUser, &gotSession)).ServeHTTP(resp, req)

	if gotSession != "header-session" {
		t.Fatalf("expected header session, got %q", gotSession)
	}
	if resp.Header().Get("X-Session-ID") != "header-session" {
		t.Fatalf("expected session echoed in response header")
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatalf("no cookie should be set when a session already exists")
	}
}

func TestSessionFallsBackToCookie(t *testing.T) {
	var gotUser, gotSession string
	req := httptest.NewRequest(http.MethodGet, "/panier", nil)
	req.AddCookie(&http.Cookie{Name: "cartSessionId", Value: "cookie-session"})
	resp := httptest.NewRecorder()
	Session(sessionTestJWTConfig(), nil)(captureHandler(&gotUser, &gotSession)).ServeHTTP(resp, req)

	if gotSession != "cookie-session" {
		t.Fatalf("expected cookie session, got %q", gotSession)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatalf("no cookie should be set when the cookie already exists")
	}
}

func TestSessionMintsGuestSession(t *testing.T) {
	var gotUser, gotSession string
	req := httptest.NewRequest(http.MethodGet, "/panier", nil)
	resp := httptest.NewRecorder()
	Session(sessionTestJWTConfig(), nil)(captureHandler(&gotUser, &gotSession)).ServeHTTP(resp, req)

	if gotSession == "" {
		t.Fatalf("expected a minted session id")
	}
	if _, err := uuid.Parse(gotSession); err != nil {
		t.Fatalf("minted session id is not a uuid: %v", err)
	}
	if resp.Header().Get("X-Session-ID") != gotSession {
		t.Fatalf("expected minted session echoed in response header")
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "cartSessionId" {
		t.Fatalf("expected cartSessionId cookie, got %v", cookies)
	}
	if cookies[0].Value != gotSession {
		t.Fatalf("cookie value %q does not match session %q", cookies[0].Value, gotSession)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}
}
