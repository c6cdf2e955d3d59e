// Package watsontest prepara los clientes usados por las pruebas de escenario:
// contra el servidor simulado en proceso, o contra el servicio real cuando se
// compila con -tags integration y hay credenciales en el entorno.
package watsontest

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"watson-sdk/internal/config"
	watsonhttp "watson-sdk/internal/http"
	"watson-sdk/internal/nlc"
	"watson-sdk/internal/personality"
	"watson-sdk/internal/repository"
	"watson-sdk/internal/service"
	"watson-sdk/internal/watson"
)

const (
	mockUsername         = "itest"
	mockPassword         = "itest-password"
	mockTrainingDuration = 50 * time.Millisecond
	mockStatusDelay      = 100 * time.Millisecond
)

// DefaultHeaders se envian en todas las llamadas de prueba.
var DefaultHeaders = map[string]string{
	watson.HeaderLearningOptOut: "1",
	watson.HeaderTest:           "1",
}

// Settings describe el entorno contra el que corre la prueba.
type Settings struct {
	// ClassifierID es un clasificador ya entrenado con los datos del clima.
	ClassifierID string
	StatusDelay  time.Duration
	Live         bool
}

// Server es el servidor simulado levantado para una prueba.
type Server struct {
	URL         string
	Classifiers *service.ClassifierService
}

// NewServer levanta el servidor simulado y lo cierra al terminar la prueba.
func NewServer(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	creds, err := service.NewCredentials(mockUsername, mockPassword)
	if err != nil {
		t.Fatalf("mock credentials: %v", err)
	}
	tokens := service.NewTokenService("watsontest-secret", time.Hour)
	classifiers := service.NewClassifierService(repository.NewMemoryClassifierRepository(), mockTrainingDuration, logger)
	router := watsonhttp.NewRouter(watsonhttp.RouterDeps{
		Logger:      logger,
		Credentials: creds,
		Tokens:      tokens,
		Classifiers: watsonhttp.NewClassifierHandler(logger, classifiers),
		Profiles:    watsonhttp.NewProfileHandler(logger, service.NewProfileService(logger)),
		TokenH:      watsonhttp.NewTokenHandler(logger, tokens),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &Server{URL: srv.URL, Classifiers: classifiers}
}

// NLC devuelve un cliente de clasificacion apuntado al servidor simulado.
func (s *Server) NLC(t testing.TB) *nlc.NaturalLanguageClassifier {
	t.Helper()
	client := nlc.New(watson.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))))
	client.SetEndPoint(s.URL + "/natural-language-classifier/api")
	client.SetUsernameAndPassword(mockUsername, mockPassword)
	client.SetDefaultHeaders(DefaultHeaders)
	return client
}

// NLC devuelve el cliente de clasificacion y el entorno de la prueba.
// trainingData es el CSV con el que se siembra el clasificador del servidor simulado.
func NLC(t testing.TB, trainingData string) (*nlc.NaturalLanguageClassifier, Settings) {
	t.Helper()
	cfg := loadConfig(t)
	if liveRequested && cfg.HasNLC() {
		settings, err := liveNLCSettings(cfg)
		if err != nil {
			t.Fatalf("live nlc: %v", err)
		}
		client := nlc.New(clientOptions(t, cfg)...)
		client.SetEndPoint(cfg.NLCURL)
		authenticate(t, cfg, client.Service, cfg.NLCURL, cfg.NLCUsername, cfg.NLCPassword)
		client.SetDefaultHeaders(DefaultHeaders)
		return client, settings
	}

	srv := NewServer(t)
	data, err := os.ReadFile(trainingData)
	if err != nil {
		t.Fatalf("read training data: %v", err)
	}
	seeded, err := srv.Classifiers.CreateTrained(context.Background(), "weather", "en", data)
	if err != nil {
		t.Fatalf("seed classifier: %v", err)
	}

	return srv.NLC(t), Settings{ClassifierID: seeded.ID, StatusDelay: mockStatusDelay}
}

// liveNLCSettings exige NLC_CLASSIFIER_ID: contra el servicio real es el unico
// clasificador que las pruebas de limpieza no borran.
func liveNLCSettings(cfg *config.Config) (Settings, error) {
	if cfg.NLCClassifierID == "" {
		return Settings{}, errors.New("NLC_CLASSIFIER_ID is required when running against a live service")
	}
	return Settings{ClassifierID: cfg.NLCClassifierID, StatusDelay: cfg.StatusDelay, Live: true}, nil
}

// Personality devuelve el cliente de perfiles. Contra el servidor simulado se
// autentica con un token del endpoint de autorizacion.
func Personality(t testing.TB) *personality.PersonalityInsights {
	t.Helper()
	cfg := loadConfig(t)
	if liveRequested && cfg.HasPersonalityInsights() {
		client := personality.New(clientOptions(t, cfg)...)
		client.SetEndPoint(cfg.PIURL)
		authenticate(t, cfg, client.Service, cfg.PIURL, cfg.PIUsername, cfg.PIPassword)
		client.SetDefaultHeaders(DefaultHeaders)
		return client
	}

	srv := NewServer(t)
	endpoint := srv.URL + "/personality-insights/api"
	tokens := watson.NewTokenClient(srv.URL+"/authorization/api", mockUsername, mockPassword)
	token, err := tokens.GetToken(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("get mock token: %v", err)
	}

	client := personality.New(watson.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))))
	client.SetEndPoint(endpoint)
	client.SetToken(token)
	client.SetDefaultHeaders(DefaultHeaders)
	return client
}

func loadConfig(t testing.TB) *config.Config {
	t.Helper()
	// .env es opcional; se busca en el paquete y en la raiz del modulo.
	for _, path := range []string{".env", "../../.env"} {
		_ = godotenv.Load(path)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func clientOptions(t testing.TB, cfg *config.Config) []watson.Option {
	return []watson.Option{
		watson.WithTimeout(cfg.Timeout),
		watson.WithRateLimit(cfg.RateLimit),
		watson.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))),
	}
}

// authenticate usa token cuando hay servicio de autorizacion configurado y
// credenciales basicas en caso contrario.
func authenticate(t testing.TB, cfg *config.Config, svc *watson.Service, serviceURL, username, password string) {
	t.Helper()
	if cfg.AuthorizationURL == "" {
		svc.SetUsernameAndPassword(username, password)
		return
	}
	tokens := watson.NewTokenClient(cfg.AuthorizationURL, username, password, watson.WithTimeout(cfg.Timeout))
	token, err := tokens.GetToken(context.Background(), serviceURL)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	svc.SetToken(token)
}
