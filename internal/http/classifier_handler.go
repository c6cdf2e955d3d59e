package http

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/service"
)

const classifiersPath = "/natural-language-classifier/api/v1/classifiers"

// ClassifierHandler atiende la API v1 de Natural Language Classifier.
type ClassifierHandler struct {
	logger      *zap.Logger
	classifiers *service.ClassifierService
}

func NewClassifierHandler(logger *zap.Logger, classifiers *service.ClassifierService) *ClassifierHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifierHandler{logger: logger, classifiers: classifiers}
}

type trainingMetadata struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// CreateClassifier maneja POST /v1/classifiers (multipart).
func (h *ClassifierHandler) CreateClassifier(c *gin.Context) {
	rawMeta, err := formValue(c, "training_metadata")
	if err != nil || strings.TrimSpace(rawMeta) == "" {
		abortWithError(c, http.StatusBadRequest, "Missing training metadata", "")
		return
	}
	var meta trainingMetadata
	if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil || meta.Name == "" || meta.Language == "" {
		abortWithError(c, http.StatusBadRequest, "Invalid training metadata", "name and language are required")
		return
	}

	fh, err := c.FormFile("training_data")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing training data", "")
		return
	}
	data, err := readFormFile(fh)
	if err != nil {
		h.logger.Warn("read training data failed", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Invalid training data", "")
		return
	}
	if mtype := mimetype.Detect(data); !mtype.Is("text/csv") && !mtype.Is("text/plain") {
		abortWithError(c, http.StatusUnsupportedMediaType, "Unsupported training data type", mtype.String())
		return
	}

	classifier, err := h.classifiers.Create(c.Request.Context(), meta.Name, meta.Language, data)
	if err != nil {
		h.logger.Warn("create classifier failed", zap.Error(err))
		respondError(c, err)
		return
	}
	classifier.URL = classifierURL(c, classifier.ID)
	c.JSON(http.StatusOK, classifier)
}

// GetClassifiers maneja GET /v1/classifiers.
func (h *ClassifierHandler) GetClassifiers(c *gin.Context) {
	classifiers, err := h.classifiers.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list classifiers failed", zap.Error(err))
		respondError(c, err)
		return
	}
	classifiers = lo.Map(classifiers, func(cl domain.Classifier, _ int) domain.Classifier {
		cl.URL = classifierURL(c, cl.ID)
		return cl
	})
	c.JSON(http.StatusOK, domain.Classifiers{Classifiers: classifiers})
}

// GetClassifier maneja GET /v1/classifiers/:id.
func (h *ClassifierHandler) GetClassifier(c *gin.Context) {
	classifier, err := h.classifiers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	classifier.URL = classifierURL(c, classifier.ID)
	c.JSON(http.StatusOK, classifier)
}

// Classify maneja POST /v1/classifiers/:id/classify y su variante GET con ?text=.
func (h *ClassifierHandler) Classify(c *gin.Context) {
	text := c.Query("text")
	if c.Request.Method == http.MethodPost {
		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Missing text", "")
			return
		}
		text = req.Text
	}

	id := c.Param("id")
	classification, err := h.classifiers.Classify(c.Request.Context(), id, text)
	if err != nil {
		respondError(c, err)
		return
	}
	classification.URL = classifierURL(c, id)
	c.JSON(http.StatusOK, classification)
}

// DeleteClassifier maneja DELETE /v1/classifiers/:id.
func (h *ClassifierHandler) DeleteClassifier(c *gin.Context) {
	if err := h.classifiers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func classifierURL(c *gin.Context, id string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + classifiersPath + "/" + id
}

// formValue lee un campo de texto; algunos clientes lo mandan como archivo.
func formValue(c *gin.Context, name string) (string, error) {
	if v, ok := c.GetPostForm(name); ok {
		return v, nil
	}
	fh, err := c.FormFile(name)
	if err != nil {
		return "", err
	}
	data, err := readFormFile(fh)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
