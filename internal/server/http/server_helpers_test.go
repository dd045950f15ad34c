package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/sitecms/internal/crypto"
	"github.com/and161185/sitecms/internal/limiter"
	"github.com/and161185/sitecms/internal/model"
	"github.com/and161185/sitecms/internal/notify"
	"github.com/and161185/sitecms/internal/repository/fsrepo"
	"github.com/and161185/sitecms/internal/service"
	"github.com/and161185/sitecms/internal/session"
)

const testPassword = "correct horse"

var testSecret = []byte("cookie-signing-secret")

type testEnv struct {
	srv      *Server
	router   *gin.Engine
	sessions *session.Memory
	contact  *recordingNotifier
	path     string
}

type recordingNotifier struct{ got []model.ContactRequest }

func (r *recordingNotifier) NotifyContact(_ context.Context, req model.ContactRequest) error {
	r.got = append(r.got, req)
	return nil
}

var _ notify.Notifier = (*recordingNotifier)(nil)

type envOpt func(*envConfig)

type envConfig struct {
	max     int
	maxSize int
	maxBody int64
}

func withLimit(n int) envOpt { return func(c *envConfig) { c.max = n } }
func withMaxSize(n int) envOpt { return func(c *envConfig) { c.maxSize = n } }
func withMaxBody(n int64) envOpt { return func(c *envConfig) { c.maxBody = n } }

func newTestEnv(t *testing.T, opts ...envOpt) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := envConfig{max: 10}
	for _, o := range opts {
		o(&cfg)
	}

	secret, err := pkgcrypto.NewSecret(testPassword)
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	log := zaptest.NewLogger(t)
	sessions := session.NewMemory(time.Hour)
	authLim := limiter.NewMemory(cfg.max, time.Minute)
	writeLim := limiter.NewMemory(cfg.max, time.Minute)

	auth := service.NewAuthService(secret, sessions, authLim, service.WithAuthLogger(log))
	path := filepath.Join(t.TempDir(), "data", "content.json")
	content := service.NewContentService(fsrepo.NewContentRepo(path), auth,
		service.WithMaxContentSize(cfg.maxSize), service.WithContentLogger(log))
	rec := &recordingNotifier{}
	contact := service.NewContactService(rec, authLim, log)

	srv := New(auth, content, contact, writeLim,
		NewCookieCodec("cms_admin_session", testSecret, time.Hour, false), log,
		Options{MaxContentBody: cfg.maxBody, MaxContentSize: cfg.maxSize})
	return &testEnv{srv: srv, router: srv.Router(), sessions: sessions, contact: rec, path: path}
}

func (e *testEnv) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login performs a successful login and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/admin/auth", `{"action":"login","password":"`+testPassword+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	ck := findCookie(w, "cms_admin_session")
	if ck == nil {
		t.Fatalf("login: no session cookie")
	}
	return ck
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
