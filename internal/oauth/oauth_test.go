package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// fakeProvider starts an HTTP server that plays both the token and the
// user info endpoints, and rewires the provider to use it.
func fakeProvider(t *testing.T, p *Provider, userInfoJSON string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.FormValue("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, userInfoJSON)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p.Config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.UserInfoURL = srv.URL + "/userinfo"
}

func TestGoogleExchange(t *testing.T) {
	p := NewGoogle("client-id", "client-secret", "http://localhost/auth/google/callback")
	fakeProvider(t, p, `{"sub":"google-sub-1","email":"jan@example.com","name":"Jan Kowalski"}`)

	info, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if info.Provider != "google" {
		t.Errorf("provider = %q", info.Provider)
	}
	if info.ProviderUserID != "google-sub-1" {
		t.Errorf("subject = %q", info.ProviderUserID)
	}
	if info.Email != "jan@example.com" {
		t.Errorf("email = %q", info.Email)
	}
}

func TestFacebookExchangeUsesIDField(t *testing.T) {
	p := NewFacebook("client-id", "client-secret", "http://localhost/auth/facebook/callback")
	fakeProvider(t, p, `{"id":"fb-42","email":"anna@example.com","name":"Anna Nowak"}`)

	info, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if info.Provider != "facebook" {
		t.Errorf("provider = %q", info.Provider)
	}
	if info.ProviderUserID != "fb-42" {
		t.Errorf("subject = %q", info.ProviderUserID)
	}
}

func TestExchangeRejectsBadCode(t *testing.T) {
	p := NewGoogle("client-id", "client-secret", "http://localhost/cb")
	fakeProvider(t, p, `{}`)

	if _, err := p.Exchange(context.Background(), "stolen-code"); err == nil {
		t.Fatal("expected an error for a rejected code")
	}
}

func TestExchangeRejectsMissingSubject(t *testing.T) {
	p := NewGoogle("client-id", "client-secret", "http://localhost/cb")
	fakeProvider(t, p, `{"email":"no-subject@example.com"}`)

	if _, err := p.Exchange(context.Background(), "good-code"); err == nil {
		t.Fatal("expected an error for a user info response without a subject")
	}
}

func TestAuthURLCarriesState(t *testing.T) {
	p := NewGoogle("client-id", "client-secret", "http://localhost/cb")

	raw := p.AuthURL("nonce-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	if got := u.Query().Get("state"); got != "nonce-abc" {
		t.Errorf("state = %q", got)
	}
	if got := u.Query().Get("redirect_uri"); got != "http://localhost/cb" {
		t.Errorf("redirect_uri = %q", got)
	}
	if !strings.Contains(u.Query().Get("scope"), "email") {
		t.Errorf("scope missing email: %q", u.Query().Get("scope"))
	}
}
