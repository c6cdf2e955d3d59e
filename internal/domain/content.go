package domain

import "time"

const (
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
)

// ContentItem es una unidad de texto que aporta al calculo del perfil.
// Created y Updated son milisegundos desde epoch, como los espera el servicio.
type ContentItem struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userid,omitempty"`
	SourceID    string `json:"sourceid,omitempty"`
	Created     int64  `json:"created,omitempty"`
	Updated     int64  `json:"updated,omitempty"`
	ContentType string `json:"contenttype,omitempty"`
	Language    string `json:"language,omitempty"`
	Content     string `json:"content" validate:"required"`
	ParentID    string `json:"parentid,omitempty"`
	Reply       bool   `json:"reply,omitempty"`
	Forward     bool   `json:"forward,omitempty"`
}

// NewContentItem arma un item de texto plano creado en el instante dado.
func NewContentItem(content string, created time.Time) ContentItem {
	return ContentItem{
		Content:     content,
		ContentType: ContentTypeText,
		Created:     created.UnixMilli(),
	}
}

// CreatedAt convierte Created a time.Time.
func (c ContentItem) CreatedAt() time.Time {
	return time.UnixMilli(c.Created).UTC()
}

// Content agrupa los items enviados en una sola solicitud.
type Content struct {
	ContentItems []ContentItem `json:"contentItems"`
}

// Text concatena el contenido de todos los items.
func (c Content) Text() string {
	var out []byte
	for i, item := range c.ContentItems {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, item.Content...)
	}
	return string(out)
}
