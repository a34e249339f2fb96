package citation

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bibliography/internal/logging"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var builtinStyles = []Option{
	{"apa", "American Psychological Association 7th edition"},
	{"chicago-author-date", "Chicago Manual of Style 17th edition (author-date)"},
	{"chicago-fullnote-bibliography", "Chicago Manual of Style 17th edition (full note)"},
	{"chicago-note-bibliography", "Chicago Manual of Style 17th edition (note)"},
	{"harvard-cite-them-right", "Cite Them Right 12th edition - Harvard"},
	{"ieee", "IEEE"},
	{"iso690-author-date-fr", "ISO-690 (author-date, French)"},
	{"modern-language-association", "Modern Language Association 9th edition"},
	{"nature", "Nature"},
	{"vancouver", "Vancouver"},
}

var builtinLocales = []string{
	"de-DE", "en-GB", "en-US", "es-ES", "fr-FR", "it-IT", "nl-NL", "pt-BR",
}

// Catalog lists the CSL styles and locales offered in the settings forms.
type Catalog struct {
	mu      sync.RWMutex
	styles  []Option
	locales []string
}

// NewCatalog scans stylesDir for *.csl files and localesDir for
// locales-xx-XX.xml files. Empty or unreadable directories fall back to the
// built-in lists.
func NewCatalog(stylesDir, localesDir string) *Catalog {
	c := &Catalog{}
	c.Reload(stylesDir, localesDir)
	return c
}

// Reload rescans the directories.
func (c *Catalog) Reload(stylesDir, localesDir string) {
	styles := scanStyles(stylesDir)
	if len(styles) == 0 {
		styles = append([]Option(nil), builtinStyles...)
	}
	locales := scanLocales(localesDir)
	if len(locales) == 0 {
		locales = append([]string(nil), builtinLocales...)
	}

	c.mu.Lock()
	c.styles = styles
	c.locales = locales
	c.mu.Unlock()
	logging.CitationDebug("Catalog loaded: %d styles, %d locales", len(styles), len(locales))
}

// Styles returns the style options sorted by label.
func (c *Catalog) Styles() []Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Option(nil), c.styles...)
}

// Locales returns locale options; the first option is the empty default.
func (c *Catalog) Locales() []Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Option, 0, len(c.locales)+1)
	out = append(out, Option{Value: "", Label: "Default"})
	for _, l := range c.locales {
		out = append(out, Option{Value: l, Label: l})
	}
	return out
}

// HasStyle reports whether id is a known style.
func (c *Catalog) HasStyle(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.styles {
		if s.Value == id {
			return true
		}
	}
	return false
}

// HasLocale reports whether code is a known locale. The empty locale is always valid.
func (c *Catalog) HasLocale(code string) bool {
	if code == "" {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.locales {
		if l == code {
			return true
		}
	}
	return false
}

// Validate checks that the settings reference a known style and locale.
func (c *Catalog) Validate(s SiteSettings) error {
	if s.Style != "" && !c.HasStyle(s.Style) {
		return fmt.Errorf("unknown citation style %q", s.Style)
	}
	if !c.HasLocale(s.Locale) {
		return fmt.Errorf("unknown citation locale %q", s.Locale)
	}
	return nil
}

func scanStyles(dir string) []Option {
	if dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.csl"))
	if err != nil {
		return nil
	}
	var out []Option
	for _, p := range paths {
		id := strings.TrimSuffix(filepath.Base(p), ".csl")
		label, err := styleTitle(p)
		if err != nil || label == "" {
			if err != nil {
				logging.Get(logging.CategoryCitation).Warn("Cannot read style %s: %v", p, err)
			}
			label = id
		}
		out = append(out, Option{Value: id, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// styleTitle returns the text of the first <title> element of a CSL file.
func styleTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	inTitle := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inTitle = t.Name.Local == "title"
		case xml.CharData:
			if inTitle {
				return strings.TrimSpace(string(t)), nil
			}
		case xml.EndElement:
			inTitle = false
		}
	}
}

func scanLocales(dir string) []string {
	if dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "locales-*.xml"))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		code := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "locales-"), ".xml")
		if code != "" {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
