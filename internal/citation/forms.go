package citation

import "fmt"

// Field types understood by the admin UI.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
)

// Field describes one form element.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Info     string   `json:"info,omitempty"`
	Options  []Option `json:"options,omitempty"`
	Required bool     `json:"required"`
	Value    any      `json:"value,omitempty"`
}

// Fieldset is a named group of fields added to a host form.
type Fieldset struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// InputFilter overrides the validation of one element of a fieldset.
type InputFilter struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// FieldsetName is the name under which the bibliography elements are added
// to the host settings forms.
const FieldsetName = "bibliography"

// Form identifiers.
const (
	FormSettings     = "settings"
	FormSiteSettings = "site-settings"
	FormBlock        = "block"
)

// Field returns the field called name.
func (f Fieldset) Field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Select elements are required until the input filters relax them.
func styleLocaleFields(cat *Catalog, current SiteSettings) []Field {
	return []Field{
		{
			Name:     SettingStyle,
			Type:     FieldSelect,
			Label:    "Citation style",
			Info:     "The default citation style used to format references.",
			Options:  cat.Styles(),
			Required: true,
			Value:    current.Style,
		},
		{
			Name:     SettingLocale,
			Type:     FieldSelect,
			Label:    "Citation locale",
			Info:     "Language and regional conventions of the citations. Empty uses the style default.",
			Options:  cat.Locales(),
			Required: true,
			Value:    current.Locale,
		},
	}
}

// SettingsFieldset is added to the main settings form.
func SettingsFieldset(cat *Catalog, current SiteSettings) Fieldset {
	return Fieldset{Name: FieldsetName, Label: "Bibliography", Fields: styleLocaleFields(cat, current)}
}

// SiteSettingsFieldset is added to the site settings form.
func SiteSettingsFieldset(cat *Catalog, current SiteSettings) Fieldset {
	return Fieldset{Name: FieldsetName, Label: "Bibliography", Fields: styleLocaleFields(cat, current)}
}

// BlockFieldset edits the settings of a bibliography page block.
func BlockFieldset(cat *Catalog, current BlockSettings) Fieldset {
	styles := append([]Option{{Value: "", Label: "Site default"}}, cat.Styles()...)
	return Fieldset{
		Name:  "o:block[__blockIndex__][o:data]",
		Label: "Bibliography",
		Fields: []Field{
			{Name: "heading", Type: FieldText, Label: "Block title", Value: current.Heading},
			{Name: "style", Type: FieldSelect, Label: "Citation style", Options: styles, Value: current.Style},
			{Name: "locale", Type: FieldSelect, Label: "Citation locale", Options: cat.Locales(), Value: current.Locale},
			{Name: "query", Type: FieldText, Label: "Query to select resources", Info: "Search query of the resources to cite.", Value: current.Query},
			{Name: "append_site", Type: FieldCheckbox, Label: "Append the site title", Value: current.AppendSite},
			{Name: "append_access_date", Type: FieldCheckbox, Label: "Append the access date", Value: current.AppendAccessDate},
			{Name: "bibliographic", Type: FieldCheckbox, Label: "Bibliographic mode", Info: "Render as a bibliography entry instead of a citation.", Value: current.Bibliographic},
			{Name: "template", Type: FieldText, Label: "Template to display", Value: current.Template},
		},
	}
}

// SettingsInputFilters are attached to both settings forms so that the style
// and locale may be left empty.
func SettingsInputFilters() []InputFilter {
	return []InputFilter{
		{Name: SettingStyle, Required: false},
		{Name: SettingLocale, Required: false},
	}
}

// FormFieldset returns the fieldset of a form identifier.
func FormFieldset(form string, cat *Catalog, site SiteSettings, block BlockSettings) (Fieldset, error) {
	switch form {
	case FormSettings:
		return SettingsFieldset(cat, site), nil
	case FormSiteSettings:
		return SiteSettingsFieldset(cat, site), nil
	case FormBlock:
		return BlockFieldset(cat, block), nil
	default:
		return Fieldset{}, fmt.Errorf("unknown form %q", form)
	}
}

// ApplyInputFilters sets Required on the fields named by filters.
func ApplyInputFilters(fs Fieldset, filters []InputFilter) Fieldset {
	fields := make([]Field, len(fs.Fields))
	copy(fields, fs.Fields)
	for _, f := range filters {
		for i := range fields {
			if fields[i].Name == f.Name {
				fields[i].Required = f.Required
			}
		}
	}
	fs.Fields = fields
	return fs
}
