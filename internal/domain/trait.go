package domain

const (
	TraitCategoryPersonality = "personality"
	TraitCategoryNeeds       = "needs"
	TraitCategoryValues      = "values"
)

// Trait es un nodo del arbol de rasgos de un perfil.
type Trait struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	Percentage       *float64 `json:"percentage,omitempty"`
	SamplingError    *float64 `json:"sampling_error,omitempty"`
	RawScore         *float64 `json:"raw_score,omitempty"`
	RawSamplingError *float64 `json:"raw_sampling_error,omitempty"`
	Children         []Trait  `json:"children,omitempty"`
}

// Find recorre el arbol en profundidad y devuelve el rasgo con ese id.
func (t *Trait) Find(id string) *Trait {
	if t == nil {
		return nil
	}
	if t.ID == id {
		return t
	}
	for i := range t.Children {
		if found := t.Children[i].Find(id); found != nil {
			return found
		}
	}
	return nil
}
