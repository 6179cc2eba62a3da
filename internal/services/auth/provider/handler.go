// Package provider runs the external OAuth flow: redirect to the provider
// with a stored state, exchange the callback code for a token, fetch the
// user's profile, and issue a session cookie.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/requestctx"
	"github.com/valusophy/city/internal/services/auth/session"
	"github.com/valusophy/city/internal/services/auth/storage"
)

// ProfileRedirect is where successful sign-ins land.
const ProfileRedirect = "/profile"

// Handler serves the login, callback, and logout endpoints.
type Handler struct {
	config     Config
	states     storage.StateStore
	sessions   session.Config
	httpClient *http.Client
	clock      func() time.Time
}

// NewHandler builds a provider handler.
func NewHandler(cfg Config, states storage.StateStore, sessions session.Config) *Handler {
	return &Handler{
		config:     cfg,
		states:     states,
		sessions:   sessions,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clock:      time.Now,
	}
}

// HandleLogin starts the provider flow with a fresh state and PKCE pair.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	codeVerifier, err := newCodeVerifier()
	if err != nil {
		log.Printf("generate code verifier: %v", err)
		h.redirectWithError(w, r, "login_failed")
		return
	}
	state, err := generateToken(24)
	if err != nil {
		log.Printf("generate state: %v", err)
		h.redirectWithError(w, r, "login_failed")
		return
	}

	now := h.clock().UTC()
	if err := h.states.DeleteExpired(r.Context(), now); err != nil {
		log.Printf("sweep expired provider states: %v", err)
	}
	err = h.states.CreateState(r.Context(), storage.StateRecord{
		State:        state,
		CodeVerifier: codeVerifier,
		RedirectURI:  ProfileRedirect,
		ExpiresAt:    now.Add(h.config.StateTTL),
		CreatedAt:    now,
	})
	if err != nil {
		log.Printf("store provider state: %v", err)
		h.redirectWithError(w, r, "login_failed")
		return
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", h.config.ClientID)
	query.Set("redirect_uri", h.config.RedirectURI)
	query.Set("scope", strings.Join(h.config.Scopes, " "))
	query.Set("state", state)
	query.Set("code_challenge", computeS256Challenge(codeVerifier))
	query.Set("code_challenge_method", "S256")

	authURL, err := url.Parse(h.config.AuthURL)
	if err != nil {
		log.Printf("parse auth url: %v", err)
		h.redirectWithError(w, r, "login_failed")
		return
	}
	authURL.RawQuery = query.Encode()
	http.Redirect(w, r, authURL.String(), http.StatusFound)
}

// HandleCallback finishes the provider flow and issues a session cookie.
// Provider errors and our own failures both land on / with an error query
// parameter.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectWithError(w, r, errParam)
		return
	}
	code := r.URL.Query().Get("code")
	stateValue := r.URL.Query().Get("state")
	if code == "" || stateValue == "" {
		h.redirectWithError(w, r, "missing_code_or_state")
		return
	}

	record, err := h.states.GetState(r.Context(), stateValue)
	if err != nil {
		log.Printf("lookup provider state: %v", apperrors.Wrap(apperrors.CodeOAuthStateInvalid, "unknown state", err))
		h.redirectWithError(w, r, "invalid_state")
		return
	}
	if !record.ExpiresAt.After(h.clock().UTC()) {
		if err := h.states.DeleteState(r.Context(), stateValue); err != nil {
			log.Printf("delete expired state: %v", err)
		}
		log.Printf("provider callback: %v", apperrors.New(apperrors.CodeOAuthStateInvalid, "state expired"))
		h.redirectWithError(w, r, "state_expired")
		return
	}
	defer func() {
		if err := h.states.DeleteState(r.Context(), stateValue); err != nil {
			log.Printf("delete state: %v", err)
		}
	}()

	token, err := h.exchangeToken(r.Context(), code, record.CodeVerifier)
	if err != nil {
		log.Printf("exchange provider token: %v", err)
		h.redirectWithError(w, r, "exchange_failed")
		return
	}
	profile, err := h.fetchProfile(r.Context(), token)
	if err != nil {
		log.Printf("fetch provider profile: %v", err)
		h.redirectWithError(w, r, "profile_failed")
		return
	}

	sessionToken, err := h.sessions.Issue(requestctx.Principal{ID: profile.Subject, Email: profile.Email})
	if err != nil {
		log.Printf("issue session: %v", err)
		h.redirectWithError(w, r, "session_failed")
		return
	}
	session.SetCookie(w, sessionToken, h.sessions.TTL)

	target := record.RedirectURI
	if target == "" {
		target = ProfileRedirect
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLogout clears the session cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(reason), http.StatusFound)
}

func (h *Handler) exchangeToken(ctx context.Context, code, codeVerifier string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", h.config.RedirectURI)
	form.Set("client_id", h.config.ClientID)
	form.Set("client_secret", h.config.ClientSecret)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeOAuthExchangeFailed, "request token", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.CodeOAuthExchangeFailed, fmt.Sprintf("token exchange returned %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperrors.Wrap(apperrors.CodeOAuthExchangeFailed, "decode token response", err)
	}
	if payload.AccessToken == "" {
		return "", apperrors.New(apperrors.CodeOAuthExchangeFailed, "missing access token")
	}
	return payload.AccessToken, nil
}

// profile is the subset of the provider's userinfo response we use.
type profile struct {
	Subject string
	Email   string
}

func (h *Handler) fetchProfile(ctx context.Context, accessToken string) (profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.config.UserInfoURL, nil)
	if err != nil {
		return profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return profile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return profile{}, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var payload struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return profile{}, err
	}
	if payload.Sub == "" {
		return profile{}, errors.New("missing subject in userinfo")
	}
	return profile{Subject: payload.Sub, Email: payload.Email}, nil
}
