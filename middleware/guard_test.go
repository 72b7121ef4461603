package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goBreach "github.com/MrEthical07/goBreach"
)

const (
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
)

type rangeStub struct {
	down atomic.Bool
	hits atomic.Int64
	srv  *httptest.Server
}

func newRangeStub(t *testing.T) *rangeStub {
	t.Helper()

	s := &rangeStub{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if strings.TrimPrefix(r.URL.Path, "/range/") == passwordPrefix {
			_, _ = fmt.Fprintf(w, "%s:3861493\r\n", passwordSuffix)
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func newTestEngine(t *testing.T, stub *rangeStub) *goBreach.Engine {
	t.Helper()

	cfg := goBreach.DefaultConfig()
	cfg.Client.Endpoint = stub.srv.URL + "/range/"
	cfg.Client.Timeout = 2 * time.Second
	engine, err := goBreach.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func formRequest(password string) *http.Request {
	form := url.Values{"password": {password}}
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

type recordingHandler struct {
	called  bool
	checked bool
	verdict goBreach.Verdict
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.verdict, h.checked = VerdictFromContext(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func TestRejectBreachedBlocksBreachedPassword(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)

	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	RejectBreached(engine, FormField("password"))(next).ServeHTTP(rec, formRequest("password"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if next.called {
		t.Fatal("next handler must not run for a breached password")
	}
	if strings.Contains(rec.Body.String(), passwordSuffix) {
		t.Fatal("response leaked the hash suffix")
	}
}

func TestRejectBreachedPassesCleanPasswordWithVerdict(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)

	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	RejectBreached(engine, FormField("password"))(next).ServeHTTP(rec, formRequest("correct horse battery staple-unique-2024"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !next.called || !next.checked {
		t.Fatalf("expected checked pass-through, got called=%v checked=%v", next.called, next.checked)
	}
	if next.verdict.Breached {
		t.Fatalf("unexpected verdict %+v", next.verdict)
	}
}

func TestRejectBreachedFailsOpenAfterOutage(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)
	stub.down.Store(true)

	guard := RejectBreached(engine, FormField("password"))

	for i := 0; i < 2; i++ {
		next := &recordingHandler{}
		rec := httptest.NewRecorder()
		guard(next).ServeHTTP(rec, formRequest("password"))

		if rec.Code != http.StatusNoContent || !next.called {
			t.Fatalf("attempt %d: expected pass-through, got %d", i, rec.Code)
		}
		if next.checked {
			t.Fatalf("attempt %d: no verdict expected while unavailable", i)
		}
	}
	if got := stub.hits.Load(); got != 1 {
		t.Fatalf("expected one upstream request before automatic checks disabled, got %d", got)
	}
}

func TestRequireCheckedFailsClosed(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)
	stub.down.Store(true)

	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	RequireChecked(engine, FormField("password"))(next).ServeHTTP(rec, formRequest("password"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if next.called {
		t.Fatal("next handler must not run without a verdict")
	}
}

func TestRequireCheckedStillQueriesWhileAutomaticDisabled(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)

	stub.down.Store(true)
	RejectBreached(engine, FormField("password"))(&recordingHandler{}).ServeHTTP(httptest.NewRecorder(), formRequest("x"))
	if engine.AutomaticChecksEnabled(t.Context()) {
		t.Fatal("automatic checks should be disabled after an outage")
	}
	stub.down.Store(false)

	rec := httptest.NewRecorder()
	RequireChecked(engine, FormField("password"))(&recordingHandler{}).ServeHTTP(rec, formRequest("password"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 from manual check, got %d", rec.Code)
	}
}

func TestGuardMissingPassword(t *testing.T) {
	stub := newRangeStub(t)
	engine := newTestEngine(t, stub)

	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	Guard(engine, ModeManual, FormField("password"))(next).ServeHTTP(rec, formRequest(""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.hits.Load() != 0 {
		t.Fatal("no lookup expected without a password")
	}
}

func TestGuardNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	Guard(nil, ModeAutomatic, FormField("password"))(&recordingHandler{}).ServeHTTP(rec, formRequest("password"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestJSONFieldRestoresBody(t *testing.T) {
	body := `{"username":"alice","password":"hunter2"}`
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))

	secret, err := JSONField("password")(r)
	if err != nil {
		t.Fatalf("JSONField: %v", err)
	}
	if string(secret) != "hunter2" {
		t.Fatalf("unexpected secret %q", secret)
	}

	rest, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != body {
		t.Fatalf("body not restored: %q", rest)
	}
}

func TestJSONFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "missing field", body: `{"username":"alice"}`, wantErr: ErrNoSecret},
		{name: "empty field", body: `{"password":""}`, wantErr: ErrNoSecret},
		{name: "not a string", body: `{"password":42}`},
		{name: "not json", body: `password=hunter2`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			_, err := JSONField("password")(r)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGuardKeepsUpstreamClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(goBreach.WithClientIP(r.Context(), "203.0.113.9"))

	ip, ok := goBreach.ClientIPFromContext(withClientIP(r))
	if !ok || ip != "203.0.113.9" {
		t.Fatalf("expected upstream IP, got %q", ip)
	}

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	ip, _ = goBreach.ClientIPFromContext(withClientIP(r))
	if ip != "198.51.100.7" {
		t.Fatalf("expected RemoteAddr host, got %q", ip)
	}
}
