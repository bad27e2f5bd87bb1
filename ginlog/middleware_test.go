package ginlog

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"

	"sanelog"
)

func newTestRouter(buf *bytes.Buffer, opts ...AccessOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logging := sanelog.New(sanelog.WithMode(sanelog.ModeContainer), sanelog.WithWriter(buf))
	router := gin.New()
	router.Use(RequestID())
	router.Use(AccessLog(logging, opts...))
	return router
}

func perform(router *gin.Engine, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAccessLogRecord(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})

	w := perform(router, http.MethodGet, "/ping", map[string]string{"User-Agent": "sanelog-test"})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one access line, got %q", out)
	}
	line := strings.TrimSuffix(out, "\n")
	if strings.Contains(line, `"`) {
		t.Errorf("access line contains a double quote: %q", line)
	}
	for _, want := range []string{
		"logger:gin.access",
		"level:INFO",
		"type:access",
		"method:GET",
		"path:/ping",
		"status_code:200",
		"user_agent:sanelog-test",
		"request_ms:",
		"request_id:",
		"remote:",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("access line missing %q: %q", want, line)
		}
	}
}

func TestAccessLogWarnsOnErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	perform(router, http.MethodGet, "/boom", nil)

	line := buf.String()
	if !strings.Contains(line, "level:WARN") {
		t.Errorf("5xx response should log at WARN: %q", line)
	}
	if !strings.Contains(line, "status_code:500") {
		t.Errorf("status missing: %q", line)
	}
}

func TestAccessLogSkipsHealthz(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	perform(router, http.MethodGet, "/healthz", nil)

	if buf.Len() != 0 {
		t.Errorf("healthz probe must not produce an access record: %q", buf.String())
	}
}

func TestAccessLogSkipPathsOverride(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf, WithSkipPaths("/metrics"))
	router.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	perform(router, http.MethodGet, "/metrics", nil)
	if buf.Len() != 0 {
		t.Errorf("overridden skip path logged: %q", buf.String())
	}

	perform(router, http.MethodGet, "/healthz", nil)
	if !strings.Contains(buf.String(), "path:/healthz") {
		t.Errorf("healthz should be logged once the skip list is replaced: %q", buf.String())
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)

	var seen string
	router.GET("/id", func(c *gin.Context) {
		seen = FromContext(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})

	w := perform(router, http.MethodGet, "/id", nil)

	echoed := w.Header().Get(HeaderRequestID)
	if echoed == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if seen != echoed {
		t.Errorf("context request ID %q does not match header %q", seen, echoed)
	}
	if !strings.Contains(buf.String(), "request_id:"+echoed) {
		t.Errorf("access record missing request ID %q: %q", echoed, buf.String())
	}
}

func TestRequestIDHonorsUpstreamHeader(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)
	router.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := perform(router, http.MethodGet, "/id", map[string]string{HeaderRequestID: "abc-123"})

	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("upstream request ID not echoed, got %q", got)
	}
	if !strings.Contains(buf.String(), "request_id:abc-123") {
		t.Errorf("access record missing upstream request ID: %q", buf.String())
	}
}

func TestAccessLogForwardedHost(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)
	router.GET("/fwd", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	perform(router, http.MethodGet, "/fwd", map[string]string{"X-Forwarded-For": "203.0.113.9"})

	if !strings.Contains(buf.String(), "host:203.0.113.9") {
		t.Errorf("X-Forwarded-For should override host: %q", buf.String())
	}
}
