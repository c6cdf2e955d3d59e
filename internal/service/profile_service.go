package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"watson-sdk/internal/domain"
)

const (
	MinProfileWords       = 100
	RecommendedWordCount  = 3500
	defaultProfileLang    = "en"
	profileSourceUnknown  = "*UNKNOWN*"
	bigFiveFacetsPerTrait = 6
)

var (
	ErrNotEnoughWords      = errors.New("not enough words")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// ProfileInput es el contenido recibido por el endpoint de perfiles.
type ProfileInput struct {
	Content    domain.Content
	Language   string
	IncludeRaw bool
}

type bigFiveTrait struct {
	id      string
	name    string
	lexicon []string
	facets  []string
}

// Lexicos chicos por rasgo; el perfil se arma con la densidad de cada uno
// cada cien palabras.
var bigFive = []bigFiveTrait{
	{
		id: "Openness", name: "Openness",
		lexicon: []string{"idea", "ideas", "art", "read", "reading", "books", "poetry", "curious", "imagine", "music", "paint", "painting", "history", "science", "learn", "learned", "wonder", "explore", "explorer", "new"},
		facets:  []string{"Adventurousness", "Artistic interests", "Emotionality", "Imagination", "Intellect", "Authority-challenging"},
	},
	{
		id: "Conscientiousness", name: "Conscientiousness",
		lexicon: []string{"plan", "planning", "careful", "carefully", "work", "organize", "notebook", "responsibility", "finish", "finished", "deadline", "deadlines", "schedule", "scheduling", "prepared", "ship", "shipped", "patience"},
		facets:  []string{"Achievement striving", "Cautiousness", "Dutifulness", "Orderliness", "Self-discipline", "Self-efficacy"},
	},
	{
		id: "Extraversion", name: "Extraversion",
		lexicon: []string{"friends", "people", "party", "dinner", "together", "crowd", "hosted", "sang", "meet", "met", "talking", "team", "everyone", "excited"},
		facets:  []string{"Activity level", "Assertiveness", "Cheerfulness", "Excitement-seeking", "Outgoing", "Gregariousness"},
	},
	{
		id: "Agreeableness", name: "Agreeableness",
		lexicon: []string{"kind", "kindness", "help", "generous", "grateful", "listen", "support", "supported", "patient", "love", "thank", "thanks", "share", "care", "proud"},
		facets:  []string{"Altruism", "Cooperation", "Modesty", "Uncompromising", "Sympathy", "Trust"},
	},
	{
		id: "Neuroticism", name: "Emotional range",
		lexicon: []string{"worry", "worried", "afraid", "fear", "anxious", "sad", "angry", "stress", "panic", "panicked", "wrong", "weighs", "problem", "problems", "uncertainty"},
		facets:  []string{"Fiery", "Prone to worry", "Melancholy", "Immoderation", "Self-consciousness", "Susceptible to stress"},
	},
}

var facetOffsets = [bigFiveFacetsPerTrait]float64{-0.08, -0.03, 0, 0.02, 0.05, -0.05}

// Necesidades y valores se derivan de un rasgo Big Five (indice en bigFive)
// directo o invertido.
type derivedTrait struct {
	name   string
	source int
	invert bool
}

var needs = []derivedTrait{
	{"Challenge", 0, false}, {"Closeness", 3, false}, {"Curiosity", 0, false},
	{"Excitement", 2, false}, {"Harmony", 3, false}, {"Ideal", 4, true},
	{"Liberty", 1, true}, {"Love", 2, false}, {"Practicality", 1, false},
	{"Self-expression", 0, false}, {"Stability", 4, true}, {"Structure", 1, false},
}

var values = []derivedTrait{
	{"Conservation", 0, true}, {"Openness to change", 0, false}, {"Hedonism", 2, false},
	{"Self-enhancement", 3, true}, {"Self-transcendence", 3, false},
}

// ProfileService arma perfiles deterministas a partir de estadisticas de palabras.
type ProfileService struct {
	logger *zap.Logger
}

func NewProfileService(logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{logger: logger}
}

// BuildProfile valida el contenido y devuelve el arbol de rasgos.
func (s *ProfileService) BuildProfile(input ProfileInput) (domain.Profile, error) {
	text := plainText(input.Content)
	words := tokenize(text)
	if len(words) < MinProfileWords {
		return domain.Profile{}, fmt.Errorf("%w: the number of words %d is less than the minimum number of words required for analysis: %d",
			ErrNotEnoughWords, len(words), MinProfileWords)
	}

	lang := strings.ToLower(strings.TrimSpace(input.Language))
	if lang == "" {
		lang = detectLanguage(text)
	}
	if lang != "en" && lang != "es" {
		return domain.Profile{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	counts := lo.CountValues(words)
	n := float64(len(words))
	samplingError := 0.05 * math.Sqrt(float64(RecommendedWordCount)/n)

	bigFiveNodes := make([]domain.Trait, 0, len(bigFive))
	scores := make([]float64, len(bigFive))
	for i, trait := range bigFive {
		perHundred := 100 * float64(lexiconHits(counts, trait.lexicon)) / n
		pct := clamp(1 / (1 + math.Exp(-1.5*(perHundred-1))))
		scores[i] = pct

		facets := make([]domain.Trait, 0, len(trait.facets))
		for j, facet := range trait.facets {
			facets = append(facets, traitNode(facet, facet, domain.TraitCategoryPersonality,
				clamp(pct+facetOffsets[j]), samplingError*1.2, input.IncludeRaw, perHundred))
		}
		inner := traitNode(trait.id, trait.name, domain.TraitCategoryPersonality, pct, samplingError, input.IncludeRaw, perHundred)
		inner.Children = facets
		parent := traitNode(trait.id+"_parent", trait.name, domain.TraitCategoryPersonality, pct, 0, false, 0)
		parent.SamplingError = nil
		parent.Children = []domain.Trait{inner}
		bigFiveNodes = append(bigFiveNodes, parent)
	}

	root := &domain.Trait{
		ID:   "r",
		Name: "root",
		Children: []domain.Trait{
			{ID: "personality", Name: "Big 5", Children: bigFiveNodes},
			derivedBranch("needs", "Needs", domain.TraitCategoryNeeds, needs, scores, samplingError, input.IncludeRaw),
			derivedBranch("values", "Values", domain.TraitCategoryValues, values, scores, samplingError, input.IncludeRaw),
		},
	}

	profile := domain.Profile{
		ID:            profileID(input.Content),
		Source:        profileSource(input.Content),
		WordCount:     len(words),
		ProcessedLang: lang,
		Tree:          root,
	}
	if len(words) < RecommendedWordCount {
		profile.WordCountMessage = fmt.Sprintf(
			"There were %d words in the input. We need a minimum of 3,500, preferably 6,000 or more, to compute statistically significant estimates",
			len(words))
	}
	s.logger.Debug("profile built", zap.Int("word_count", len(words)), zap.String("lang", lang))
	return profile, nil
}

func derivedBranch(id, name, category string, traits []derivedTrait, scores []float64, samplingError float64, includeRaw bool) domain.Trait {
	children := lo.Map(traits, func(d derivedTrait, _ int) domain.Trait {
		pct := scores[d.source]
		if d.invert {
			pct = 1 - pct
		}
		return traitNode(d.name, d.name, category, clamp(pct), samplingError, includeRaw, pct)
	})
	top := children[0]
	parent := traitNode(top.ID+"_parent", top.Name, category, *top.Percentage, 0, false, 0)
	parent.SamplingError = nil
	parent.Children = children
	return domain.Trait{ID: id, Name: name, Children: []domain.Trait{parent}}
}

func traitNode(id, name, category string, pct, samplingError float64, includeRaw bool, raw float64) domain.Trait {
	t := domain.Trait{
		ID:            id,
		Name:          name,
		Category:      category,
		Percentage:    lo.ToPtr(pct),
		SamplingError: lo.ToPtr(samplingError),
	}
	if includeRaw {
		t.RawScore = lo.ToPtr(raw)
		t.RawSamplingError = lo.ToPtr(samplingError)
	}
	return t
}

func lexiconHits(counts map[string]int, lexicon []string) int {
	hits := 0
	for _, w := range lexicon {
		hits += counts[w]
	}
	return hits
}

func plainText(content domain.Content) string {
	parts := make([]string, 0, len(content.ContentItems))
	for _, item := range content.ContentItems {
		text := item.Content
		if item.ContentType == domain.ContentTypeHTML {
			text = htmlTag.ReplaceAllString(text, " ")
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

func profileID(content domain.Content) string {
	userIDs := lo.Uniq(lo.FilterMap(content.ContentItems, func(c domain.ContentItem, _ int) (string, bool) {
		return c.UserID, c.UserID != ""
	}))
	if len(userIDs) == 1 {
		return userIDs[0]
	}
	return profileSourceUnknown
}

func profileSource(content domain.Content) string {
	sources := lo.Uniq(lo.FilterMap(content.ContentItems, func(c domain.ContentItem, _ int) (string, bool) {
		return c.SourceID, c.SourceID != ""
	}))
	if len(sources) == 1 {
		return sources[0]
	}
	return profileSourceUnknown
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return defaultProfileLang
	}
	return info.Lang.Iso6391()
}

func clamp(v float64) float64 {
	return math.Max(0.01, math.Min(0.99, v))
}
