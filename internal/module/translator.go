package module

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Translator localizes user-facing message templates.
type Translator interface {
	Translate(msg string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(msg string) string { return f(msg) }

// IdentityTranslator returns messages unchanged.
var IdentityTranslator Translator = TranslatorFunc(func(s string) string { return s })

// CatalogTranslator translates through a message catalog, falling back to the
// source text for missing entries.
type CatalogTranslator struct {
	Locale   string
	messages map[string]string
}

// NewCatalogTranslator creates a translator from a msgid -> msgstr map.
func NewCatalogTranslator(locale string, messages map[string]string) *CatalogTranslator {
	if messages == nil {
		messages = map[string]string{}
	}
	return &CatalogTranslator{Locale: locale, messages: messages}
}

// Translate implements Translator.
func (c *CatalogTranslator) Translate(msg string) string {
	if t, ok := c.messages[msg]; ok && t != "" {
		return t
	}
	return msg
}

// LoadCatalog reads a YAML catalog of the form:
//
//	locale: fr
//	messages:
//	  "source text": "texte traduit"
func LoadCatalog(r io.Reader) (*CatalogTranslator, error) {
	var doc struct {
		Locale   string            `yaml:"locale"`
		Messages map[string]string `yaml:"messages"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}
	return NewCatalogTranslator(doc.Locale, doc.Messages), nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*CatalogTranslator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}
