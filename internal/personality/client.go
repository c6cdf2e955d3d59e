package personality

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/watson"
)

const (
	DefaultEndPoint = "https://gateway.watsonplatform.net/personality-insights/api"
	ServiceName     = "personality_insights"
)

// PersonalityInsights es el cliente del servicio Personality Insights v2.
type PersonalityInsights struct {
	*watson.Service
	validate *validator.Validate
}

// ProfileOptions describe una solicitud de perfil. Text y ContentItems son
// excluyentes; uno de los dos es obligatorio.
type ProfileOptions struct {
	Text           string               `validate:"required_without=ContentItems,excluded_with=ContentItems"`
	ContentItems   []domain.ContentItem `validate:"required_without=Text,dive"`
	ContentType    string               `validate:"omitempty,oneof=text/plain text/html"`
	Language       string               `validate:"omitempty,oneof=en es"`
	AcceptLanguage string
	IncludeRaw     bool
}

// New construye el cliente apuntando al endpoint publico por defecto.
func New(opts ...watson.Option) *PersonalityInsights {
	return &PersonalityInsights{
		Service:  watson.NewService(ServiceName, DefaultEndPoint, opts...),
		validate: validator.New(),
	}
}

// GetProfile calcula el perfil a partir de texto plano.
func (p *PersonalityInsights) GetProfile(ctx context.Context, text string) (*domain.Profile, error) {
	return p.GetProfileWithOptions(ctx, ProfileOptions{Text: text})
}

// GetProfileWithOptions calcula el perfil con texto o con una lista de items.
func (p *PersonalityInsights) GetProfileWithOptions(ctx context.Context, opts ProfileOptions) (*domain.Profile, error) {
	if err := p.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("validate profile options: %w", err)
	}
	if len(opts.ContentItems) == 0 && strings.TrimSpace(opts.Text) == "" {
		return nil, fmt.Errorf("text or content items are required")
	}

	path := "/v2/profile"
	if opts.IncludeRaw {
		path += "?include_raw=true"
	}

	var (
		req *http.Request
		err error
	)
	if len(opts.ContentItems) > 0 {
		content := domain.Content{ContentItems: opts.ContentItems}
		req, err = p.NewJSONRequest(ctx, http.MethodPost, path, content)
		if opts.Language == "" {
			opts.Language = DetectLanguage(content.Text())
		}
	} else {
		req, err = p.NewRequest(ctx, http.MethodPost, path, strings.NewReader(opts.Text))
		if err == nil {
			contentType := opts.ContentType
			if contentType == "" {
				contentType = domain.ContentTypeText
			}
			req.Header.Set("Content-Type", contentType+"; charset=utf-8")
		}
		if opts.Language == "" {
			opts.Language = DetectLanguage(opts.Text)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.Language != "" {
		req.Header.Set("Content-Language", opts.Language)
	}
	if opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", opts.AcceptLanguage)
	}

	var profile domain.Profile
	if err := p.Do(req, &profile); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// DetectLanguage devuelve "en" o "es" cuando la deteccion es confiable, o ""
// para dejar que el servicio use su idioma por defecto.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	switch lang := info.Lang.Iso6391(); lang {
	case "en", "es":
		return lang
	default:
		return ""
	}
}
