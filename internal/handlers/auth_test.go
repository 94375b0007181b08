package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"homedash/internal/repository"
	"homedash/internal/service"
)

func postJSON(r http.Handler, path, body string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_SignUpAndSignIn(t *testing.T) {
	auth := &mockAuth{signUpID: "uid-42", genTokenToken: "tok123", parseID: "uid-1"}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	// sign-up success
	w := postJSON(r, "/auth/sign-up", `{"email":"a@b.fr","password":"secret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["id"] != "uid-42" {
		t.Fatalf("expected id=uid-42, got %v", m["id"])
	}
	if auth.lastSignUpEmail != "a@b.fr" || auth.lastSignUpPassword != "secret" {
		t.Fatalf("unexpected sign-up args: %q %q", auth.lastSignUpEmail, auth.lastSignUpPassword)
	}

	// sign-in success
	w = postJSON(r, "/auth/sign-in", `{"email":"a@b.fr","password":"secret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	m = map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}

	// sign-in invalid body → 400
	w = postJSON(r, "/auth/sign-in", `{"email":1}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_SignInFailureIs401(t *testing.T) {
	auth := &mockAuth{genTokenErr: service.ErrInvalidCredentials}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/sign-in", `{"email":"a@b.fr","password":"nope"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandlers_SignUpErrorsMapped(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"weak password", service.ErrWeakPassword, http.StatusBadRequest},
		{"invalid email", service.ErrInvalidEmail, http.StatusBadRequest},
		{"email taken", repository.ErrEmailTaken, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{signUpErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: auth})
			w := postJSON(r, "/auth/sign-up", `{"email":"a@b.fr","password":"x"}`, nil)
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestAuthHandlers_SignOutRevokesBearer(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/sign-out", ``, authHeader("tok-9"))
	if w.Code != http.StatusOK {
		t.Fatalf("sign-out status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(auth.signedOut) != 1 || auth.signedOut[0] != "tok-9" {
		t.Fatalf("expected tok-9 revoked, got %v", auth.signedOut)
	}

	w = postJSON(r, "/auth/sign-out", ``, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestAuthHandlers_ResetPassword(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/reset-password", `{"email":"a@b.fr"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(auth.resetEmails) != 1 || auth.resetEmails[0] != "a@b.fr" {
		t.Fatalf("unexpected reset emails: %v", auth.resetEmails)
	}

	auth.confirmErr = service.ErrInvalidReset
	w = postJSON(r, "/auth/reset-password/confirm", `{"token":"r1","password":"newpass"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad reset token, got %d", w.Code)
	}
}
