package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

func writeEnvelope(w http.ResponseWriter, status int, envelope map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func newTestClient(t *testing.T, server *httptest.Server, tokens TokenSource, unauthorized UnauthorizedHandler) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: server.URL + "/api", Timeout: time.Second}, tokens, unauthorized, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens TokenSource
		want   string
	}{
		{name: "token present", tokens: staticToken("abc"), want: "Bearer abc"},
		{name: "empty token", tokens: staticToken(""), want: ""},
		{name: "no token source", tokens: nil, want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotAuth, gotRequestID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotRequestID = r.Header.Get("X-Request-ID")
				writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"id": "r1"}})
			}))
			defer server.Close()

			client := newTestClient(t, server, tc.tokens, nil)
			var out struct {
				ID string `json:"id"`
			}
			if err := client.Get(context.Background(), "/rooms/r1", nil, &out); err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if gotAuth != tc.want {
				t.Fatalf("Authorization = %q, want %q", gotAuth, tc.want)
			}
			if gotRequestID == "" {
				t.Fatalf("expected a request id header")
			}
			if out.ID != "r1" {
				t.Fatalf("expected decoded data, got %+v", out)
			}
		})
	}
}

func TestClientEncodesQueryAndBody(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotBody map[string]string
	var gotMethod, gotPath, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotQuery = r.Method, r.URL.Path, r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)
	ctx := context.Background()

	if err := client.Get(ctx, "bookings", url.Values{"status": {"pending"}}, nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if gotPath != "/api/bookings" || gotQuery.Get("status") != "pending" {
		t.Fatalf("unexpected request %s?%v", gotPath, gotQuery)
	}

	if err := client.Patch(ctx, "/bookings/b1/reject", map[string]string{"reason": "busy"}, nil); err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotBody["reason"] != "busy" || gotContentType != "application/json" {
		t.Fatalf("unexpected patch request: %s %v %q", gotMethod, gotBody, gotContentType)
	}

	for _, call := range []struct {
		method string
		fn     func() error
	}{
		{http.MethodPost, func() error { return client.Post(ctx, "/bookings", map[string]string{"a": "b"}, nil) }},
		{http.MethodPut, func() error { return client.Put(ctx, "/bookings/b1", map[string]string{"a": "b"}, nil) }},
		{http.MethodDelete, func() error { return client.Delete(ctx, "/rooms/r1", nil) }},
	} {
		if err := call.fn(); err != nil {
			t.Fatalf("%s returned error: %v", call.method, err)
		}
		if gotMethod != call.method {
			t.Fatalf("expected %s, got %s", call.method, gotMethod)
		}
	}
}

func TestClientUnauthorizedClearsBeforeReturning(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired"})
	}))
	defer server.Close()

	var handled atomic.Int32
	client := newTestClient(t, server, staticToken("stale"), UnauthorizedFunc(func(ctx context.Context) {
		if ctx.Err() != nil {
			t.Errorf("handler received a cancelled context")
		}
		handled.Add(1)
	}))

	err := client.Get(context.Background(), "/auth/profile", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if handled.Load() != 1 {
		t.Fatalf("expected handler to run once before return, ran %d times", handled.Load())
	}
	if got := Message(err, "fallback"); got != "Token expired" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestClientConcurrentUnauthorizedResponses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false})
	}))
	defer server.Close()

	var handled atomic.Int32
	client := newTestClient(t, server, staticToken("stale"), UnauthorizedFunc(func(context.Context) { handled.Add(1) }))

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Get(context.Background(), "/bookings/my", nil, nil); !IsUnauthorized(err) {
				t.Errorf("expected unauthorized error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if handled.Load() != n {
		t.Fatalf("expected the handler once per failing response, got %d", handled.Load())
	}
}

func TestClientErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{name: "conflict with message", status: http.StatusConflict, body: `{"success":false,"message":"Room already booked"}`, wantKind: KindRejected, wantMsg: "Room already booked"},
		{name: "forbidden with error field", status: http.StatusForbidden, body: `{"success":false,"error":"Forbidden"}`, wantKind: KindRejected, wantMsg: "Forbidden"},
		{name: "not found without body", status: http.StatusNotFound, body: ``, wantKind: KindRejected, wantMsg: "fallback"},
		{name: "success false on 200", status: http.StatusOK, body: `{"success":false,"message":"Invalid state"}`, wantKind: KindRejected, wantMsg: "Invalid state"},
		{name: "malformed body", status: http.StatusOK, body: `<html>`, wantKind: KindDecode, wantMsg: "fallback"},
		{name: "bad data shape", status: http.StatusOK, body: `{"success":true,"data":"text"}`, wantKind: KindDecode, wantMsg: "fallback"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			client := newTestClient(t, server, nil, UnauthorizedFunc(func(context.Context) {
				t.Errorf("unauthorized handler must not run for status %d", tc.status)
			}))
			var out struct {
				ID string `json:"id"`
			}
			err := client.Get(context.Background(), "/rooms", nil, &out)
			if KindOf(err) != tc.wantKind {
				t.Fatalf("expected kind %q, got %v", tc.wantKind, err)
			}
			if got := Message(err, "fallback"); got != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, got)
			}
		})
	}
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	err := newTestClient(t, server, nil, nil).Get(context.Background(), "/bookings/missing", nil, nil)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientTransportFailures(t *testing.T) {
	t.Parallel()

	t.Run("server unreachable", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		err := newTestClient(t, server, nil, nil).Get(context.Background(), "/rooms", nil, nil)
		if KindOf(err) != KindTransport {
			t.Fatalf("expected transport error, got %v", err)
		}
		if Message(err, "Network error") != "Network error" {
			t.Fatalf("expected fallback message for transport errors")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client, err := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil, nil, nil)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		err = client.Get(context.Background(), "/rooms", nil, nil)
		if KindOf(err) != KindTransport {
			t.Fatalf("expected transport error on timeout, got %v", err)
		}
	})
}

func TestClientUpload(t *testing.T) {
	t.Parallel()

	var gotField, gotFilename, gotContentType, gotContent, gotCover string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		for field, headers := range r.MultipartForm.File {
			gotField = field
			gotFilename = headers[0].Filename
			gotContentType = headers[0].Header.Get("Content-Type")
			f, _ := headers[0].Open()
			data, _ := io.ReadAll(f)
			gotContent = string(data)
		}
		gotCover = r.FormValue("isCover")
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true})
	}))
	defer server.Close()

	form := Form{
		Fields: []Field{{Name: "isCover", Value: "true"}},
		Files:  []File{{Field: "photos", Filename: "room.png", ContentType: "image/png", Content: strings.NewReader("png-bytes")}},
	}
	if err := newTestClient(t, server, nil, nil).Upload(context.Background(), "/rooms/r1/photos", form, nil); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if gotField != "photos" || gotFilename != "room.png" || gotContentType != "image/png" || gotContent != "png-bytes" || gotCover != "true" {
		t.Fatalf("unexpected upload: field=%q name=%q type=%q content=%q cover=%q", gotField, gotFilename, gotContentType, gotContent, gotCover)
	}

	err := newTestClient(t, server, nil, nil).Upload(context.Background(), "/rooms/r1/photos", Form{Files: []File{{Field: "photos"}}}, nil)
	if err == nil {
		t.Fatalf("expected error for file without content")
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "localhost", "://bad"} {
		if _, err := New(Config{BaseURL: raw}, nil, nil, nil); err == nil {
			t.Fatalf("expected error for base URL %q", raw)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	err := &Error{Kind: KindRejected, Status: 409, Message: "Room already booked"}
	if got := err.Error(); got != "api: rejected (409): Room already booked" {
		t.Fatalf("unexpected error text %q", got)
	}
	wrapped := &Error{Kind: KindTransport, Err: errors.New("connection refused")}
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Fatalf("expected transport cause in %q", wrapped.Error())
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Fatalf("expected Unwrap to expose the cause")
	}
	if Message(nil, "x") != "" {
		t.Fatalf("expected empty message for nil error")
	}
	if Message(errors.New("plain"), "fallback") != "fallback" {
		t.Fatalf("expected fallback for non-API errors")
	}
}
