package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/repository"
)

var (
	ErrInvalidTrainingData = errors.New("invalid training data")
	ErrClassifierNotReady  = errors.New("classifier not ready")
	ErrEmptyText           = errors.New("text is required")
)

const minTrainingClasses = 2

// ClassifierService simula el ciclo de vida de los clasificadores: entrenamiento
// diferido, listado, clasificacion y borrado.
type ClassifierService struct {
	repo             repository.ClassifierRepository
	trainingDuration time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewClassifierService(repo repository.ClassifierRepository, trainingDuration time.Duration, logger *zap.Logger) *ClassifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifierService{
		repo:             repo,
		trainingDuration: trainingDuration,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Create parsea el CSV y registra el clasificador en estado Training.
func (s *ClassifierService) Create(ctx context.Context, name, language string, training []byte) (domain.Classifier, error) {
	return s.create(ctx, name, language, training, s.trainingDuration)
}

// CreateTrained registra un clasificador que ya esta disponible.
func (s *ClassifierService) CreateTrained(ctx context.Context, name, language string, training []byte) (domain.Classifier, error) {
	return s.create(ctx, name, language, training, 0)
}

func (s *ClassifierService) create(ctx context.Context, name, language string, training []byte, trainingDuration time.Duration) (domain.Classifier, error) {
	examples, err := ParseTrainingCSV(training)
	if err != nil {
		return domain.Classifier{}, err
	}

	now := s.now()
	record := domain.ClassifierRecord{
		Classifier: domain.Classifier{
			ID:       uuid.NewString(),
			Name:     name,
			Language: language,
			Created:  now,
		},
		Examples: examples,
		ReadyAt:  now.Add(trainingDuration),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return domain.Classifier{}, fmt.Errorf("store classifier: %w", err)
	}
	s.logger.Info("classifier created",
		zap.String("classifier_id", record.Classifier.ID),
		zap.String("name", name),
		zap.Int("examples", len(examples)),
	)
	return s.withStatus(record), nil
}

// Get devuelve el clasificador con el estado calculado al momento.
func (s *ClassifierService) Get(ctx context.Context, id string) (domain.Classifier, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Classifier{}, err
	}
	return s.withStatus(record), nil
}

// List devuelve los resumenes de todos los clasificadores, sin estado.
func (s *ClassifierService) List(ctx context.Context) ([]domain.Classifier, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r domain.ClassifierRecord, _ int) domain.Classifier {
		return domain.Classifier{
			ID:       r.Classifier.ID,
			Name:     r.Classifier.Name,
			Language: r.Classifier.Language,
			Created:  r.Classifier.Created,
		}
	}), nil
}

// Classify ordena las clases del clasificador segun el solapamiento de
// palabras entre el texto y los ejemplos de cada clase.
func (s *ClassifierService) Classify(ctx context.Context, id, text string) (domain.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Classification{}, ErrEmptyText
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Classification{}, err
	}
	if status := record.StatusAt(s.now()); status != domain.ClassifierStatusAvailable {
		return domain.Classification{}, fmt.Errorf("%w: status %s", ErrClassifierNotReady, status)
	}

	classes := rankClasses(record.Examples, text)
	classification := domain.Classification{
		ClassifierID: id,
		Text:         text,
		Classes:      classes,
	}
	if len(classes) > 0 {
		classification.TopClass = classes[0].Name
	}
	return classification, nil
}

func (s *ClassifierService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("classifier deleted", zap.String("classifier_id", id))
	return nil
}

func (s *ClassifierService) withStatus(record domain.ClassifierRecord) domain.Classifier {
	c := record.Classifier
	c.Status = record.StatusAt(s.now())
	switch c.Status {
	case domain.ClassifierStatusTraining:
		c.StatusDescription = "The classifier instance is in its training phase, not yet ready to accept classify requests"
	case domain.ClassifierStatusAvailable:
		c.StatusDescription = "The classifier instance is now available and is ready to take classifier requests."
	}
	return c
}

// ParseTrainingCSV lee filas "texto,clase[,clase...]".
func ParseTrainingCSV(data []byte) ([]domain.TrainingExample, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var examples []domain.TrainingExample
	classes := map[string]struct{}{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTrainingData, err)
		}
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			return nil, fmt.Errorf("%w: line %d needs text and at least one class", ErrInvalidTrainingData, len(examples)+1)
		}
		labels := lo.Compact(lo.Map(row[1:], func(l string, _ int) string { return strings.TrimSpace(l) }))
		if len(labels) == 0 {
			return nil, fmt.Errorf("%w: line %d has no class", ErrInvalidTrainingData, len(examples)+1)
		}
		for _, l := range labels {
			classes[l] = struct{}{}
		}
		examples = append(examples, domain.TrainingExample{Text: strings.TrimSpace(row[0]), Classes: labels})
	}
	if len(classes) < minTrainingClasses {
		return nil, fmt.Errorf("%w: at least %d distinct classes are required", ErrInvalidTrainingData, minTrainingClasses)
	}
	return examples, nil
}

func rankClasses(examples []domain.TrainingExample, text string) []domain.ClassifiedClass {
	query := lo.Uniq(tokenize(text))

	docFreq := map[string]map[string]int{}
	exampleCount := map[string]int{}
	for _, ex := range examples {
		words := lo.Uniq(tokenize(ex.Text))
		for _, class := range ex.Classes {
			exampleCount[class]++
			if docFreq[class] == nil {
				docFreq[class] = map[string]int{}
			}
			for _, w := range words {
				docFreq[class][w]++
			}
		}
	}

	const smoothing = 0.01
	scores := map[string]float64{}
	var total float64
	for class, n := range exampleCount {
		score := smoothing
		for _, w := range query {
			score += float64(docFreq[class][w]) / float64(n)
		}
		scores[class] = score
		total += score
	}

	ranked := make([]domain.ClassifiedClass, 0, len(scores))
	for class, score := range scores {
		ranked = append(ranked, domain.ClassifiedClass{Name: class, Confidence: score / total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence == ranked[j].Confidence {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
