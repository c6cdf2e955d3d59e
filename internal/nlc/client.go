package nlc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/watson"
)

const (
	DefaultEndPoint = "https://gateway.watsonplatform.net/natural-language-classifier/api"
	ServiceName     = "natural_language_classifier"
)

var ErrInvalidTrainingData = errors.New("training data must be csv text")

// NaturalLanguageClassifier es el cliente del servicio Natural Language Classifier v1.
type NaturalLanguageClassifier struct {
	*watson.Service
	validate *validator.Validate
}

type trainingMetadata struct {
	Name     string `json:"name" validate:"required"`
	Language string `json:"language" validate:"required,oneof=en ar fr de it ja ko pt es"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

// New construye el cliente apuntando al endpoint publico por defecto.
func New(opts ...watson.Option) *NaturalLanguageClassifier {
	return &NaturalLanguageClassifier{
		Service:  watson.NewService(ServiceName, DefaultEndPoint, opts...),
		validate: validator.New(),
	}
}

// CreateClassifier envia los datos de entrenamiento (CSV texto,clase) y devuelve
// el clasificador recien creado, normalmente en estado Training.
func (c *NaturalLanguageClassifier) CreateClassifier(ctx context.Context, name, language string, trainingData io.Reader) (*domain.Classifier, error) {
	meta := trainingMetadata{Name: name, Language: language}
	if err := c.validate.Struct(meta); err != nil {
		return nil, fmt.Errorf("validate training metadata: %w", err)
	}
	if trainingData == nil {
		return nil, ErrInvalidTrainingData
	}
	data, err := io.ReadAll(trainingData)
	if err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrInvalidTrainingData
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("text/csv") && !mtype.Is("text/plain") {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidTrainingData, mtype.String())
	}

	body, contentType, err := buildTrainingForm(meta, data, mtype.String())
	if err != nil {
		return nil, err
	}
	req, err := c.NewRequest(ctx, http.MethodPost, "/v1/classifiers", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var classifier domain.Classifier
	if err := c.Do(req, &classifier); err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	return &classifier, nil
}

// CreateClassifierFromFile lee los datos de entrenamiento desde un archivo.
func (c *NaturalLanguageClassifier) CreateClassifierFromFile(ctx context.Context, name, language, path string) (*domain.Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()
	return c.CreateClassifier(ctx, name, language, f)
}

// GetClassifier devuelve el clasificador con su estado actual.
func (c *NaturalLanguageClassifier) GetClassifier(ctx context.Context, classifierID string) (*domain.Classifier, error) {
	path, err := classifierPath(classifierID)
	if err != nil {
		return nil, err
	}
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var classifier domain.Classifier
	if err := c.Do(req, &classifier); err != nil {
		return nil, fmt.Errorf("get classifier %s: %w", classifierID, err)
	}
	return &classifier, nil
}

// GetClassifiers lista los clasificadores de la cuenta.
func (c *NaturalLanguageClassifier) GetClassifiers(ctx context.Context) (*domain.Classifiers, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, "/v1/classifiers", nil)
	if err != nil {
		return nil, err
	}
	var classifiers domain.Classifiers
	if err := c.Do(req, &classifiers); err != nil {
		return nil, fmt.Errorf("get classifiers: %w", err)
	}
	if classifiers.Classifiers == nil {
		classifiers.Classifiers = []domain.Classifier{}
	}
	return &classifiers, nil
}

// Classify clasifica el texto con el clasificador indicado.
func (c *NaturalLanguageClassifier) Classify(ctx context.Context, classifierID, text string) (*domain.Classification, error) {
	path, err := classifierPath(classifierID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	req, err := c.NewJSONRequest(ctx, http.MethodPost, path+"/classify", classifyRequest{Text: text})
	if err != nil {
		return nil, err
	}
	var classification domain.Classification
	if err := c.Do(req, &classification); err != nil {
		return nil, fmt.Errorf("classify with %s: %w", classifierID, err)
	}
	return &classification, nil
}

// DeleteClassifier borra el clasificador.
func (c *NaturalLanguageClassifier) DeleteClassifier(ctx context.Context, classifierID string) error {
	path, err := classifierPath(classifierID)
	if err != nil {
		return err
	}
	req, err := c.NewRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if err := c.Do(req, nil); err != nil {
		return fmt.Errorf("delete classifier %s: %w", classifierID, err)
	}
	return nil
}

func classifierPath(classifierID string) (string, error) {
	if strings.TrimSpace(classifierID) == "" {
		return "", fmt.Errorf("classifier id is required")
	}
	return "/v1/classifiers/" + url.PathEscape(classifierID), nil
}

func buildTrainingForm(meta trainingMetadata, data []byte, dataType string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("marshal training metadata: %w", err)
	}
	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Disposition", `form-data; name="training_metadata"`)
	metaHeader.Set("Content-Type", "application/json")
	part, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, "", fmt.Errorf("create metadata part: %w", err)
	}
	if _, err := part.Write(metaBytes); err != nil {
		return nil, "", fmt.Errorf("write metadata part: %w", err)
	}

	dataHeader := textproto.MIMEHeader{}
	dataHeader.Set("Content-Disposition", `form-data; name="training_data"; filename="training_data.csv"`)
	dataHeader.Set("Content-Type", dataType)
	part, err = w.CreatePart(dataHeader)
	if err != nil {
		return nil, "", fmt.Errorf("create training part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write training part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
