package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal stand-in for the server's auth and content routes.
type fakeAPI struct {
	password string
	token    string
	stored   []byte
}

func (f *fakeAPI) authed(r *http.Request) bool {
	ck, err := r.Cookie(DefaultCookieName)
	return err == nil && ck.Value == f.token
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON := func(code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}

	switch r.URL.Path {
	case "/api/admin/auth":
		var req authRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Action {
		case "login":
			if req.Password != f.password {
				writeJSON(http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid password"})
				return
			}
			http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: f.token, Path: "/", MaxAge: 3600})
			writeJSON(http.StatusOK, authResponse{Success: true, Authenticated: true})
		case "check":
			if !f.authed(r) {
				http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
			}
			writeJSON(http.StatusOK, authResponse{Success: true, Authenticated: f.authed(r)})
		case "logout":
			http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
			writeJSON(http.StatusOK, authResponse{Success: true})
		}
	case "/api/content":
		if r.Method == http.MethodGet {
			w.Write(f.stored) //nolint:errcheck
			return
		}
		if !f.authed(r) {
			writeJSON(http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
			return
		}
		f.stored, _ = io.ReadAll(r.Body)
		writeJSON(http.StatusOK, map[string]any{"success": true})
	case "/api/content/reset":
		w.Header().Set("Retry-After", "42")
		writeJSON(http.StatusTooManyRequests, map[string]any{"success": false, "error": "Too many attempts. Please try again later."})
	case "/api/site-content":
		w.Header().Set("X-Content-Source", "default")
		w.Write([]byte(`{"hero":{}}`)) //nolint:errcheck
	default:
		http.NotFound(w, r)
	}
}

func newFake(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{password: "secret", token: "signed-cookie", stored: []byte(`{"hero":{"title":"old"}}`)}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func TestLoginCheckPushLogout(t *testing.T) {
	api, srv := newFake(t)
	ctx := context.Background()
	c := New(srv.URL + "/")

	ck, err := c.Login(ctx, "secret")
	require.NoError(t, err)
	require.Equal(t, "signed-cookie", ck.Value)

	ok, err := c.Check(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.PushContent(ctx, []byte(`{"hero":{"title":"new"}}`)))
	require.JSONEq(t, `{"hero":{"title":"new"}}`, string(api.stored))

	got, err := c.Content(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"hero":{"title":"new"}}`, string(got))

	require.NoError(t, c.Logout(ctx))
	require.Nil(t, c.Session())
	require.ErrorIs(t, c.PushContent(ctx, []byte(`{}`)), ErrNoSession)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, srv := newFake(t)
	c := New(srv.URL)

	_, err := c.Login(context.Background(), "nope")
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	require.Contains(t, err.Error(), "Invalid password")
	require.Nil(t, c.Session())
}

func TestCheck_StaleSessionIsDropped(t *testing.T) {
	_, srv := newFake(t)
	c := New(srv.URL, WithSession(&http.Cookie{Name: DefaultCookieName, Value: "stale"}))

	ok, err := c.Check(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, c.Session())
}

func TestPushContent_RejectsInvalidJSON(t *testing.T) {
	_, srv := newFake(t)
	c := New(srv.URL, WithSession(&http.Cookie{Name: DefaultCookieName, Value: "signed-cookie"}))

	err := c.PushContent(context.Background(), []byte(`{"hero":`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestResetContent_RateLimited(t *testing.T) {
	_, srv := newFake(t)
	c := New(srv.URL, WithSession(&http.Cookie{Name: DefaultCookieName, Value: "signed-cookie"}))

	err := c.ResetContent(context.Background())
	require.True(t, IsStatus(err, http.StatusTooManyRequests))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, "42", httpErr.RetryAfter)
	require.Contains(t, err.Error(), "retry after 42s")
}

func TestSiteContent_ReportsSource(t *testing.T) {
	_, srv := newFake(t)
	body, src, err := New(srv.URL).SiteContent(context.Background())
	require.NoError(t, err)
	require.Equal(t, "default", src)
	require.JSONEq(t, `{"hero":{}}`, string(body))
}

func TestIsStatus(t *testing.T) {
	require.False(t, IsStatus(nil, http.StatusNotFound))
	require.False(t, IsStatus(io.EOF, http.StatusNotFound))
	require.True(t, IsStatus(&HTTPError{StatusCode: 404}, http.StatusNotFound))
}
