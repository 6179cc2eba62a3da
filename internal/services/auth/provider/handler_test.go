package provider

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/services/auth/session"
	"github.com/valusophy/city/internal/services/auth/storage"
)

type memStateStore struct {
	records map[string]storage.StateRecord
}

func newMemStateStore() *memStateStore {
	return &memStateStore{records: map[string]storage.StateRecord{}}
}

func (m *memStateStore) CreateState(_ context.Context, record storage.StateRecord) error {
	m.records[record.State] = record
	return nil
}

func (m *memStateStore) GetState(_ context.Context, state string) (storage.StateRecord, error) {
	record, ok := m.records[state]
	if !ok {
		return storage.StateRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStateStore) DeleteState(_ context.Context, state string) error {
	delete(m.records, state)
	return nil
}

func (m *memStateStore) DeleteExpired(_ context.Context, now time.Time) error {
	for state, record := range m.records {
		if !record.ExpiresAt.After(now) {
			delete(m.records, state)
		}
	}
	return nil
}

var _ storage.StateStore = (*memStateStore)(nil)

func testSessions(t *testing.T) session.Config {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return session.Config{
		Issuer:   "valusophy-city",
		Audience: "valusophy-city-web",
		Key:      key,
		TTL:      time.Hour,
	}
}

func testConfig() Config {
	return Config{
		ClientID:    "client-1",
		RedirectURI: "http://localhost:8080/auth/callback",
		AuthURL:     "https://provider.test/authorize",
		TokenURL:    "https://provider.test/token",
		UserInfoURL: "https://provider.test/userinfo",
		Scopes:      []string{"openid", "email"},
		StateTTL:    10 * time.Minute,
	}
}

func TestHandleLoginRedirectsToProvider(t *testing.T) {
	states := newMemStateStore()
	handler := NewHandler(testConfig(), states, testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	query := location.Query()
	if query.Get("client_id") != "client-1" {
		t.Fatalf("client_id = %q", query.Get("client_id"))
	}
	if query.Get("code_challenge_method") != "S256" || query.Get("code_challenge") == "" {
		t.Fatalf("missing PKCE challenge: %v", query)
	}
	state := query.Get("state")
	if state == "" {
		t.Fatal("state missing from redirect")
	}
	record, ok := states.records[state]
	if !ok {
		t.Fatal("state was not stored")
	}
	if computeS256Challenge(record.CodeVerifier) != query.Get("code_challenge") {
		t.Fatal("stored verifier does not match redirect challenge")
	}
}

func TestHandleCallbackIssuesSession(t *testing.T) {
	var sawVerifier string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse token form: %v", err)
			}
			sawVerifier = r.PostForm.Get("code_verifier")
			json.NewEncoder(w).Encode(map[string]string{"access_token": "at-1"})
		case "/userinfo":
			if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
				t.Errorf("authorization = %q", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"sub": "google-123", "email": "u1@example.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TokenURL = provider.URL + "/token"
	cfg.UserInfoURL = provider.URL + "/userinfo"

	states := newMemStateStore()
	sessions := testSessions(t)
	handler := NewHandler(cfg, states, sessions)

	now := time.Now().UTC()
	states.records["state-1"] = storage.StateRecord{
		State:        "state-1",
		CodeVerifier: "verifier-1",
		RedirectURI:  "/profile",
		ExpiresAt:    now.Add(time.Minute),
		CreatedAt:    now,
	}

	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/profile" {
		t.Fatalf("location = %q, want /profile", got)
	}
	if sawVerifier != "verifier-1" {
		t.Fatalf("code_verifier = %q, want stored verifier", sawVerifier)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("session cookie not set")
	}
	principal, err := sessions.Verify(sessionCookie.Value)
	if err != nil {
		t.Fatalf("verify issued session: %v", err)
	}
	if principal.ID != "google-123" || principal.Email != "u1@example.com" {
		t.Fatalf("principal = %+v", principal)
	}

	if _, ok := states.records["state-1"]; ok {
		t.Fatal("state should be deleted after use")
	}
}

func TestHandleCallbackProviderError(t *testing.T) {
	handler := NewHandler(testConfig(), newMemStateStore(), testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/?error=access_denied" {
		t.Fatalf("location = %q", got)
	}
}

func TestHandleCallbackInvalidState(t *testing.T) {
	handler := NewHandler(testConfig(), newMemStateStore(), testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=missing", nil))

	if got := rec.Header().Get("Location"); got != "/?error=invalid_state" {
		t.Fatalf("location = %q", got)
	}
}

func TestHandleCallbackExpiredState(t *testing.T) {
	states := newMemStateStore()
	handler := NewHandler(testConfig(), states, testSessions(t))

	now := time.Now().UTC()
	states.records["state-1"] = storage.StateRecord{
		State:        "state-1",
		CodeVerifier: "v",
		ExpiresAt:    now.Add(-time.Minute),
		CreatedAt:    now.Add(-time.Hour),
	}

	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=state-1", nil))

	if got := rec.Header().Get("Location"); got != "/?error=state_expired" {
		t.Fatalf("location = %q", got)
	}
	if _, ok := states.records["state-1"]; ok {
		t.Fatal("expired state should be deleted")
	}
}

func TestHandleLogoutClearsCookie(t *testing.T) {
	handler := NewHandler(testConfig(), newMemStateStore(), testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v, want cleared session cookie", cookies)
	}
}

func TestHandleLogoutRejectsGet(t *testing.T) {
	handler := NewHandler(testConfig(), newMemStateStore(), testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestComputeS256Challenge(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := computeS256Challenge(verifier); got != want {
		t.Fatalf("computeS256Challenge() = %v, want %v", got, want)
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		token, err := generateToken(24)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if seen[token] {
			t.Fatal("duplicate token")
		}
		seen[token] = true
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token %q is not base64url", token)
		}
	}
}

func TestHandleLoginSweepsExpiredStates(t *testing.T) {
	states := newMemStateStore()
	states.records["stale"] = storage.StateRecord{
		State:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	handler := NewHandler(testConfig(), states, testSessions(t))

	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if _, ok := states.records["stale"]; ok {
		t.Fatal("expired state survived login")
	}
	// the fresh state for this login remains
	if len(states.records) != 1 {
		t.Fatalf("records = %d, want 1", len(states.records))
	}
}

func TestExchangeTokenFailureCode(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TokenURL = provider.URL + "/token"
	handler := NewHandler(cfg, newMemStateStore(), testSessions(t))

	_, err := handler.exchangeToken(context.Background(), "code-1", "verifier-1")
	if err == nil {
		t.Fatal("expected exchange error")
	}
	if apperrors.CodeOf(err) != apperrors.CodeOAuthExchangeFailed {
		t.Fatalf("code = %v, want exchange failed", apperrors.CodeOf(err))
	}
}

func TestExchangeTokenMissingAccessTokenCode(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"token_type": "bearer"}); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TokenURL = provider.URL + "/token"
	handler := NewHandler(cfg, newMemStateStore(), testSessions(t))

	_, err := handler.exchangeToken(context.Background(), "code-1", "verifier-1")
	if apperrors.CodeOf(err) != apperrors.CodeOAuthExchangeFailed {
		t.Fatalf("code = %v, want exchange failed", apperrors.CodeOf(err))
	}
}
