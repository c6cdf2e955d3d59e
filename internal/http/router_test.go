package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/repository"
	"watson-sdk/internal/service"
)

const (
	testUser     = "watson"
	testPassword = "s3cret"
	testCSV      = "Is it hot outside?,temperature\nHow cold is it?,temperature\nWill it rain?,conditions\nIs it windy?,conditions\n"
)

type testServer struct {
	router      *gin.Engine
	classifiers *service.ClassifierService
	tokens      *service.TokenService
}

func newTestServer(t *testing.T, limiter service.RequestLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	creds, err := service.NewCredentials(testUser, testPassword)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	classifiers := service.NewClassifierService(repository.NewMemoryClassifierRepository(), time.Hour, nil)
	tokens := service.NewTokenService("secret", time.Hour)
	router := NewRouter(RouterDeps{
		Credentials: creds,
		Tokens:      tokens,
		Limiter:     limiter,
		Classifiers: NewClassifierHandler(nil, classifiers),
		Profiles:    NewProfileHandler(nil, service.NewProfileService(nil)),
		TokenH:      NewTokenHandler(nil, tokens),
	})
	return &testServer{router: router, classifiers: classifiers, tokens: tokens}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.SetBasicAuth(testUser, testPassword)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func trainingRequest(t *testing.T, metadata string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if metadata != "" {
		if err := w.WriteField("training_metadata", metadata); err != nil {
			t.Fatalf("write metadata: %v", err)
		}
	}
	part, err := w.CreateFormFile("training_data", "train.csv")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, classifiersPath, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return authed(req)
}

func TestAuth_RejectsMissingAndBadCredentials(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(httptest.NewRequest(http.MethodGet, classifiersPath, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != http.StatusUnauthorized || body.Error == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}

	req := httptest.NewRequest(http.MethodGet, classifiersPath, nil)
	req.SetBasicAuth(testUser, "wrong")
	if rec := srv.do(req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestAuth_TokenFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	req := authed(httptest.NewRequest(http.MethodGet,
		"/authorization/api/v1/token?url=https://gateway.example.com/natural-language-classifier/api", nil))
	rec := srv.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from token endpoint, got %d: %s", rec.Code, rec.Body.String())
	}
	token := rec.Body.String()

	req = httptest.NewRequest(http.MethodGet, classifiersPath, nil)
	req.Header.Set(headerAuthorization, token)
	if rec := srv.do(req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile", strings.NewReader("hello"))
	req.Header.Set(headerAuthorization, token)
	if rec := srv.do(req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for token of another service, got %d", rec.Code)
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/authorization/api/v1/token", nil))
	if rec := srv.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without url, got %d", rec.Code)
	}
}

func TestClassifierLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(trainingRequest(t, `{"name":"itest-example","language":"en"}`, []byte(testCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on create, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Classifier
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode classifier: %v", err)
	}
	if created.Name != "itest-example" || created.Status != domain.ClassifierStatusTraining {
		t.Fatalf("unexpected classifier: %+v", created)
	}
	if !strings.HasSuffix(created.URL, classifiersPath+"/"+created.ID) {
		t.Fatalf("unexpected url %q", created.URL)
	}

	rec = srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath+"/"+created.ID, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", rec.Code)
	}

	req := authed(httptest.NewRequest(http.MethodPost, classifiersPath+"/"+created.ID+"/classify", strings.NewReader(`{"text":"is it hot?"}`)))
	req.Header.Set("Content-Type", "application/json")
	if rec := srv.do(req); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while training, got %d", rec.Code)
	}

	rec = srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath, nil)))
	var list domain.Classifiers
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Classifiers) != 1 || list.Classifiers[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	rec = srv.do(authed(httptest.NewRequest(http.MethodDelete, classifiersPath+"/"+created.ID, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec = srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath+"/"+created.ID, nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != http.StatusNotFound {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestClassify_TrainedClassifier(t *testing.T) {
	srv := newTestServer(t, nil)
	classifier, err := srv.classifiers.CreateTrained(context.Background(), "weather", "en", []byte(testCSV))
	if err != nil {
		t.Fatalf("create trained: %v", err)
	}

	req := authed(httptest.NewRequest(http.MethodPost, classifiersPath+"/"+classifier.ID+"/classify", strings.NewReader(`{"text":"is it hot outside?"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := srv.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.Classification
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode classification: %v", err)
	}
	if result.TopClass != "temperature" || result.ClassifierID != classifier.ID {
		t.Fatalf("unexpected classification: %+v", result)
	}

	rec = srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath+"/"+classifier.ID+"/classify?text=is+it+hot+outside", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on GET classify, got %d", rec.Code)
	}
}

func TestCreateClassifier_BadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	cases := []struct {
		name     string
		metadata string
		data     []byte
		want     int
	}{
		{name: "missing metadata", data: []byte(testCSV), want: http.StatusBadRequest},
		{name: "metadata without language", metadata: `{"name":"x"}`, data: []byte(testCSV), want: http.StatusBadRequest},
		{name: "binary data", metadata: `{"name":"x","language":"en"}`, data: []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d}, want: http.StatusUnsupportedMediaType},
		{name: "single class", metadata: `{"name":"x","language":"en"}`, data: []byte("hot,temperature\ncold,temperature\n"), want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(trainingRequest(t, tc.metadata, tc.data))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	srv := newTestServer(t, nil)
	text, err := os.ReadFile("../personality/testdata/en.txt")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile?include_raw=true", bytes.NewReader(text)))
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Content-Language", "en-US")
	rec := srv.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Tree == nil || profile.ProcessedLang != "en" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if trait := profile.Tree.Find("Openness"); trait == nil || trait.RawScore == nil {
		t.Fatalf("expected raw score on Openness, got %+v", trait)
	}

	body, err := json.Marshal(domain.Content{ContentItems: []domain.ContentItem{{UserID: "u1", Content: string(text)}}})
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	req = authed(httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile", bytes.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec = srv.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for content items, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetProfile_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	req := authed(httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile", strings.NewReader("not enough words")))
	req.Header.Set("Content-Type", "text/plain")
	rec := srv.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); !strings.Contains(body.Error, "minimum number of words") {
		t.Fatalf("unexpected error: %+v", body)
	}

	req = authed(httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile", strings.NewReader("<xml/>")))
	req.Header.Set("Content-Type", "application/xml")
	if rec := srv.do(req); rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}

	req = authed(httptest.NewRequest(http.MethodPost, "/personality-insights/api/v2/profile", strings.NewReader(`{"contentItems":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	if rec := srv.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty items, got %d", rec.Code)
	}
}

func TestGetProfile_TooLargeJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProfileHandler(nil, service.NewProfileService(nil))
	handler.maxBody = 64
	r := gin.New()
	r.POST("/profile", handler.GetProfile)

	body := `{"contentItems":[{"content":"` + strings.Repeat("word ", 64) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d (%s)", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(strings.Repeat("word ", 64)))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for text, got %d", rec.Code)
	}
}

func TestAccessLogLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(requestIDMiddleware(), accessLogMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	want := map[string]zapcore.Level{
		"/ok":      zapcore.InfoLevel,
		"/missing": zapcore.WarnLevel,
		"/boom":    zapcore.ErrorLevel,
	}
	for path, level := range want {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("%s: expected one entry, got %d", path, len(entries))
		}
		if entries[0].Level != level {
			t.Fatalf("%s: expected %s, got %s", path, level, entries[0].Level)
		}
		if entries[0].ContextMap()["route"] != path {
			t.Fatalf("%s: unexpected route field %v", path, entries[0].ContextMap()["route"])
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, service.NewMemoryRequestLimiter(time.Hour, 1))

	if rec := srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath, nil))); rec.Code != http.StatusOK {
		t.Fatalf("expected first call allowed, got %d", rec.Code)
	}
	rec := srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath, nil)))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestStatusForDuplicateClassifier(t *testing.T) {
	err := fmt.Errorf("classifier c1: %w", repository.ErrClassifierExists)
	if got := statusFor(err); got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}
}

func TestHeaderLanguage(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"en":       "en",
		"en-US":    "en",
		"ES;q=0.8": "es",
		" es_AR ":  "es",
		"es, en":   "es",
	}
	for in, want := range cases {
		if got := headerLanguage(in); got != want {
			t.Fatalf("headerLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(authed(httptest.NewRequest(http.MethodGet, classifiersPath, nil)))
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}
