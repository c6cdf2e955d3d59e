package domain

// Profile es la evaluacion de personalidad calculada por el servicio.
type Profile struct {
	ID               string `json:"id"`
	Source           string `json:"source"`
	WordCount        int    `json:"word_count"`
	WordCountMessage string `json:"word_count_message,omitempty"`
	ProcessedLang    string `json:"processed_lang"`
	Tree             *Trait `json:"tree"`
}
