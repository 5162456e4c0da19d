//go:build !integration

package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/infra/web"
)

func newServer(st *mockStatusUC, cu *mockCountingUC, apiKey string) *web.Server {
	return web.NewServer(st, cu, apiKey, time.Second, newTestLogger())
}

func TestDashboard(t *testing.T) {
	updated := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	st := &mockStatusUC{st: &model.BotStatus{Running: true, LastMessage: "Bot en ligne", UpdatedAt: updated}}
	cu := &mockCountingUC{chats: []model.ChatCounts{{ChatID: -1001, Counts: model.Counts{model.Hearts: 4}}}}
	h := newServer(st, cu, "").Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"En ligne", "Bot en ligne", "-1001", "2024-05-06 07:08:09 UTC"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestDashboard_OKWhenStoreFails(t *testing.T) {
	st := &mockStatusUC{err: errors.New("disk gone")}
	cu := &mockCountingUC{err: errors.New("disk gone")}
	h := newServer(st, cu, "").Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard must answer 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disk gone") {
		t.Error("store error should be shown on the page")
	}
	if !strings.Contains(rec.Body.String(), "Arrêté") {
		t.Error("unknown status should read as stopped")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newServer(&mockStatusUC{}, &mockCountingUC{}, "secret").Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestAPIAuth(t *testing.T) {
	st := &mockStatusUC{st: &model.BotStatus{Running: true, LastMessage: "x"}}
	cu := &mockCountingUC{chats: []model.ChatCounts{{ChatID: 1, Counts: model.Counts{model.Clubs: 2}, Total: 2}}}
	h := newServer(st, cu, "test-admin-key").Router()

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no credentials -> 401", "", http.StatusUnauthorized},
		{"malformed -> 401", "Token test-admin-key", http.StatusUnauthorized},
		{"wrong key -> 403", "Bearer nope", http.StatusForbidden},
		{"key prefix -> 403", "Bearer test-admin", http.StatusForbidden},
		{"key with suffix -> 403", "Bearer test-admin-key2", http.StatusForbidden},
		{"valid -> 200", "Bearer test-admin-key", http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != c.want {
				t.Errorf("expected %d, got %d", c.want, rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "bearer test-admin-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("chats = %d", rec.Code)
	}
	var body struct {
		Chats []model.ChatCounts `json:"chats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Chats) != 1 || body.Chats[0].Counts.Get(model.Clubs) != 2 {
		t.Errorf("unexpected chats %+v", body.Chats)
	}
}

func TestRecover_ReportsTraceID(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := web.TraceID()(web.Recover(newTestLogger())(boom))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trace req-7") {
		t.Errorf("body should carry the trace id: %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") != "req-7" {
		t.Errorf("X-Request-ID not echoed")
	}
}

func TestAPIOpenWithoutKey(t *testing.T) {
	h := newServer(&mockStatusUC{}, &mockCountingUC{}, "").Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open api, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"chats":[]`) {
		t.Errorf("expected empty list, got %s", rec.Body.String())
	}
}

func TestListenAndServe_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	err = web.ListenAndServe(context.Background(), ln.Addr().String(), http.NotFoundHandler(), time.Second, newTestLogger())
	if err == nil || !strings.Contains(err.Error(), "bind") {
		t.Errorf("expected bind error, got %v", err)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := newServer(&mockStatusUC{}, &mockCountingUC{}, "")

	done := make(chan error, 1)
	go func() { done <- web.Serve(ctx, ln, srv.Router(), time.Second, newTestLogger()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
