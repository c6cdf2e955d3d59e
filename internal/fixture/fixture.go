package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"watson-sdk/internal/domain"
)

// ReadString lee un archivo de texto completo.
func ReadString(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read fixture %s: %w", path, err)
	}
	return string(b), nil
}

// LoadContent decodifica un archivo JSON con la forma {"contentItems": [...]}.
func LoadContent(path string) (domain.Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Content{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var content domain.Content
	if err := json.NewDecoder(f).Decode(&content); err != nil {
		return domain.Content{}, fmt.Errorf("decode content %s: %w", path, err)
	}
	if len(content.ContentItems) == 0 {
		return domain.Content{}, fmt.Errorf("content %s has no items", path)
	}
	return content, nil
}
