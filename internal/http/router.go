package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"watson-sdk/internal/service"
)

// RouterDeps agrupa lo que necesita el router del servidor simulado.
type RouterDeps struct {
	Logger      *zap.Logger
	Credentials *service.Credentials
	Tokens      *service.TokenService
	Limiter     service.RequestLimiter
	Classifiers *ClassifierHandler
	Profiles    *ProfileHandler
	TokenH      *TokenHandler
}

// NewRouter configura el router de Gin con las tres superficies de Watson.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestIDMiddleware(), accessLogMiddleware(logger), gin.Recovery())

	limit := RateLimitMiddleware(deps.Limiter)

	nlc := r.Group("/natural-language-classifier/api/v1",
		AuthMiddleware(deps.Credentials, deps.Tokens, "natural-language-classifier"), limit)
	nlc.POST("/classifiers", deps.Classifiers.CreateClassifier)
	nlc.GET("/classifiers", deps.Classifiers.GetClassifiers)
	nlc.GET("/classifiers/:id", deps.Classifiers.GetClassifier)
	nlc.DELETE("/classifiers/:id", deps.Classifiers.DeleteClassifier)
	nlc.POST("/classifiers/:id/classify", deps.Classifiers.Classify)
	nlc.GET("/classifiers/:id/classify", deps.Classifiers.Classify)

	pi := r.Group("/personality-insights/api/v2",
		AuthMiddleware(deps.Credentials, deps.Tokens, "personality-insights"), limit)
	pi.POST("/profile", deps.Profiles.GetProfile)

	auth := r.Group("/authorization/api/v1", AuthMiddleware(deps.Credentials, nil, ""))
	auth.GET("/token", deps.TokenH.GetToken)

	return r
}
