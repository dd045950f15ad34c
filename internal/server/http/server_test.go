package httpserver

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/and161185/sitecms/internal/defaults"
	"github.com/and161185/sitecms/internal/service"
)

func TestHealth_AndSecurityHeaders(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["status"])

	h := w.Header()
	require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", h.Get("X-Frame-Options"))
	require.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	require.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	require.Equal(t, "camera=(), microphone=(), geolocation=()", h.Get("Permissions-Policy"))
	require.Len(t, h.Get("X-Request-Id"), 36)
}

func TestRequestID_PropagatesValidUUID(t *testing.T) {
	e := newTestEnv(t)
	req := newRequest(http.MethodGet, "/health")
	req.Header.Set("X-Request-Id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	w := serve(e, req)
	require.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", w.Header().Get("X-Request-Id"))

	req = newRequest(http.MethodGet, "/health")
	req.Header.Set("X-Request-Id", "<script>")
	w = serve(e, req)
	require.NotEqual(t, "<script>", w.Header().Get("X-Request-Id"))
}

func TestAuth_LoginSetsHardenedCookie(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"login","password":"`+testPassword+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, true, body["authenticated"])

	ck := findCookie(w, "cms_admin_session")
	require.NotNil(t, ck)
	require.True(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	require.Equal(t, "/", ck.Path)
	require.Equal(t, 3600, ck.MaxAge)
	require.False(t, ck.Secure, "development codec")

	token, ok := e.srv.cookies.Decode(ck.Value)
	require.True(t, ok)
	live, err := e.sessions.Validate(context.Background(), token)
	require.NoError(t, err)
	require.True(t, live, "cookie carries the stored session token")
}

func TestAuth_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"login","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid password", body["error"])
	require.Nil(t, findCookie(w, "cms_admin_session"))
}

func TestAuth_RateLimitAfterMaxAttempts(t *testing.T) {
	e := newTestEnv(t, withLimit(3))
	for i := 0; i < 3; i++ {
		w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"login","password":"bad"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"login","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	body := decode(t, w)
	require.Equal(t, false, body["success"])
	reset, ok := body["resetTime"].(float64)
	require.True(t, ok)
	require.Greater(t, int64(reset), time.Now().UnixMilli())

	ra, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.True(t, ra >= 1 && ra <= 60, "Retry-After=%d", ra)
}

func TestAuth_CheckAndLogout(t *testing.T) {
	e := newTestEnv(t)
	ck := e.login(t)

	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"check"}`, ck)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["authenticated"])

	w = e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"logout"}`, ck)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decode(t, w)["authenticated"])
	cleared := findCookie(w, "cms_admin_session")
	require.NotNil(t, cleared)
	require.Less(t, cleared.MaxAge, 0)

	// the old cookie no longer authenticates and is cleared on check
	w = e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"check"}`, ck)
	require.Equal(t, false, decode(t, w)["authenticated"])
	require.NotNil(t, findCookie(w, "cms_admin_session"))

	// logout without a cookie is fine
	w = e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"logout"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_CheckWithoutCookie(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"check"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decode(t, w)["authenticated"])
	require.Nil(t, findCookie(w, "cms_admin_session"))
}

func TestAuth_TamperedCookieIsNoSession(t *testing.T) {
	e := newTestEnv(t)
	ck := e.login(t)
	ck.Value = ck.Value[:len(ck.Value)-2] + "xx"

	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"check"}`, ck)
	require.Equal(t, false, decode(t, w)["authenticated"])

	w = e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"x"}}`, ck)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BadRequests(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"dance"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid action", decode(t, w)["error"])

	w = e.do(t, http.MethodPost, "/api/admin/auth", `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContent_GetBeforeAnyWrite(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/content", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, false, decode(t, w)["success"])

	w = e.do(t, http.MethodGet, "/api/site-content", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "default", w.Header().Get("X-Content-Source"))
	require.Equal(t, defaults.Default().Hero.Title, decode(t, w)["hero"].(map[string]any)["title"])
}

func TestContent_WriteRequiresSession(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"x"}}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Unauthorized", decode(t, w)["error"])

	_, err := os.Stat(e.path)
	require.True(t, os.IsNotExist(err), "nothing persisted")
}

func TestContent_WriteThenRead(t *testing.T) {
	e := newTestEnv(t)
	ck := e.login(t)

	doc := defaults.Default()
	doc.Hero.Title = "Fresh <b>copy</b>"
	raw, err := service.Canonical(doc)
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/api/content", string(raw), ck)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, true, decode(t, w)["success"])

	w = e.do(t, http.MethodGet, "/api/content", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, string(raw), w.Body.String())

	w = e.do(t, http.MethodGet, "/api/site-content", "")
	require.Equal(t, "stored", w.Header().Get("X-Content-Source"))

	onDisk, err := os.ReadFile(e.path)
	require.NoError(t, err)
	require.Equal(t, raw, onDisk)
}

func TestContent_InvalidJSON(t *testing.T) {
	e := newTestEnv(t)
	ck := e.login(t)
	w := e.do(t, http.MethodPost, "/api/content", `{"hero":`, ck)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContent_NullBodyIsRejected(t *testing.T) {
	e := newTestEnv(t)
	ck := e.login(t)

	w := e.do(t, http.MethodPost, "/api/content", " null\n", ck)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid request body", decode(t, w)["error"])

	_, err := os.Stat(e.path)
	require.True(t, os.IsNotExist(err), "nothing is persisted")
}

func TestContent_TooLarge(t *testing.T) {
	e := newTestEnv(t, withMaxSize(128))
	ck := e.login(t)

	w := e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"`+strings.Repeat("a", 200)+`"}}`, ck)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, "Content too large. Maximum size: 128 bytes", decode(t, w)["error"])
}

func TestContent_BodyCap(t *testing.T) {
	e := newTestEnv(t, withMaxBody(64), withMaxSize(32))
	ck := e.login(t)

	w := e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"`+strings.Repeat("a", 100)+`"}}`, ck)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, "Content too large. Maximum size: 32 bytes", decode(t, w)["error"],
		"the document cap is reported, not the transport cap")
}

func TestContent_WriteRateLimitedPerClient(t *testing.T) {
	e := newTestEnv(t, withLimit(2))
	ck := e.login(t)

	for i := 0; i < 2; i++ {
		w := e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"x"}}`, ck)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := e.do(t, http.MethodPost, "/api/content", `{"hero":{"title":"x"}}`, ck)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestContent_Reset(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/content/reset", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	ck := e.login(t)
	w = e.do(t, http.MethodPost, "/api/content/reset", "", ck)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/content", "")
	require.Equal(t, http.StatusOK, w.Code)
	want, err := service.Canonical(defaults.Default())
	require.NoError(t, err)
	require.Equal(t, string(want), w.Body.String())
}

func TestContact(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/contact", `{"firstName":"Ada","lastName":"","email":"a@b.c"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Please fill in all required fields.", decode(t, w)["error"])

	w = e.do(t, http.MethodPost, "/api/contact", `{"firstName":"Ada","lastName":"Lovelace","email":"a@b.c","newsletter":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Contains(t, body["message"], "Thank you Ada!")
	require.Len(t, e.contact.got, 1)
	require.True(t, e.contact.got[0].Newsletter)
}

func TestRecovery_PanicsBecome500(t *testing.T) {
	e := newTestEnv(t)
	e.router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := e.do(t, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Internal server error", decode(t, w)["error"])
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNoRoute(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
