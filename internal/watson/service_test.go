package watson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServiceAppliesBasicAuthAndDefaultHeaders(t *testing.T) {
	var gotUser, gotPass, gotOptOut, gotAccept string
	var gotBasic bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotBasic = r.BasicAuth()
		gotOptOut = r.Header.Get(HeaderLearningOptOut)
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	svc := NewService("test", srv.URL+"/")
	svc.SetUsernameAndPassword("user", "pass")
	svc.SetDefaultHeaders(map[string]string{HeaderLearningOptOut: "1"})

	req, err := svc.NewRequest(context.Background(), http.MethodGet, "/v1/things", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := svc.Do(req, &out); err != nil {
		t.Fatalf("do: %v", err)
	}

	if !gotBasic || gotUser != "user" || gotPass != "pass" {
		t.Fatalf("expected basic auth user/pass, got %q/%q (ok=%v)", gotUser, gotPass, gotBasic)
	}
	if gotOptOut != "1" {
		t.Fatalf("expected default header to be sent, got %q", gotOptOut)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected json accept header, got %q", gotAccept)
	}
	if out.Name != "ok" {
		t.Fatalf("expected decoded name ok, got %q", out.Name)
	}
}

func TestServiceTokenReplacesBasicAuth(t *testing.T) {
	var gotToken string
	var gotBasic bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotBasic = r.BasicAuth()
		gotToken = r.Header.Get(HeaderAuthorizationToken)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService("test", srv.URL)
	svc.SetUsernameAndPassword("user", "pass")
	svc.SetToken("tok-123")

	req, err := svc.NewRequest(context.Background(), http.MethodDelete, "/v1/things/1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if err := svc.Do(req, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotBasic {
		t.Fatalf("expected no basic auth when token is set")
	}
	if gotToken != "tok-123" {
		t.Fatalf("expected token header, got %q", gotToken)
	}
}

func TestServiceMapsErrorStatus(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusNotFound, `{"code":404,"error":"Not found","description":"Classifier not found"}`, ErrNotFound},
		{http.StatusUnauthorized, `{"code":401,"error":"Not Authorized"}`, ErrUnauthorized},
		{http.StatusConflict, `{"code":409,"error":"Classifier not ready"}`, ErrConflict},
		{http.StatusBadRequest, `not json`, ErrBadRequest},
		{http.StatusServiceUnavailable, ``, ErrServiceUnavailable},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		svc := NewService("test", srv.URL)
		req, err := svc.NewRequest(context.Background(), http.MethodGet, "/", nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		err = svc.Do(req, nil)
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		if StatusCode(err) != tc.status {
			t.Fatalf("expected status code %d, got %d", tc.status, StatusCode(err))
		}
	}
}

func TestServiceErrorMessage(t *testing.T) {
	serr := NewServiceError(http.StatusNotFound, []byte(`{"code":404,"error":"Not found","description":"Classifier not found"}`))
	if serr.Message != "Not found" || serr.Description != "Classifier not found" {
		t.Fatalf("unexpected parse: %+v", serr)
	}
	if got := serr.Error(); got != "watson: status 404: Not found: Classifier not found" {
		t.Fatalf("unexpected error string %q", got)
	}

	empty := NewServiceError(http.StatusTeapot, nil)
	if empty.Message != http.StatusText(http.StatusTeapot) {
		t.Fatalf("expected status text fallback, got %q", empty.Message)
	}
	if errors.Unwrap(empty) != nil {
		t.Fatalf("expected no sentinel for unmapped status")
	}
}

func TestServiceRequiresEndpoint(t *testing.T) {
	svc := NewService("test", "")
	if _, err := svc.NewRequest(context.Background(), http.MethodGet, "/", nil); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}

func TestServiceTimeoutDoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: 30 * time.Second}

	orders := map[string][]Option{
		"timeout first": {WithTimeout(5 * time.Second), WithHTTPClient(shared)},
		"client first":  {WithHTTPClient(shared), WithTimeout(5 * time.Second)},
	}
	for name, opts := range orders {
		svc := NewService("test", "http://localhost", opts...)
		if svc.client.Timeout != 5*time.Second {
			t.Fatalf("%s: expected 5s timeout, got %s", name, svc.client.Timeout)
		}
		if svc.client == shared {
			t.Fatalf("%s: expected a copy of the shared client", name)
		}
	}
	if shared.Timeout != 30*time.Second {
		t.Fatalf("shared client timeout changed to %s", shared.Timeout)
	}

	svc := NewService("test", "http://localhost", WithHTTPClient(shared))
	if svc.client != shared {
		t.Fatalf("expected shared client to be used as is without a timeout option")
	}
}

func TestTokenClientGetToken(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		gotURL = r.URL.Query().Get("url")
		_, _ = w.Write([]byte("signed-token\n"))
	}))
	defer srv.Close()

	client := NewTokenClient(srv.URL, "user", "pass")
	token, err := client.GetToken(context.Background(), "https://example.com/personality-insights/api")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token != "signed-token" {
		t.Fatalf("expected trimmed token, got %q", token)
	}
	if gotURL != "https://example.com/personality-insights/api" {
		t.Fatalf("expected service url in query, got %q", gotURL)
	}

	if _, err := client.GetToken(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty service url")
	}
}
