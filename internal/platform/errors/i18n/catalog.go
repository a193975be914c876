// Package i18n holds the user-facing error messages for each supported
// locale.
package i18n

import (
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Code mirrors errors.Code; the errors package imports this one.
type Code = string

// BaseLocale answers any locale the matcher cannot place.
const BaseLocale = "en-US"

// Catalog renders message templates for one locale.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

// NewCatalog parses messages once. A message that fails to parse is kept
// and rendered verbatim.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if t, err := template.New(code).Parse(text); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Locale returns the catalog's BCP 47 tag.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code with metadata as template data.
// Unknown codes render as the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	t, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var b strings.Builder
	if err := t.Execute(&b, metadata); err != nil {
		return raw
	}
	return b.String()
}

// catalogs is ordered with BaseLocale first so the matcher prefers it on
// ties.
var (
	catalogs = []*Catalog{enUSCatalog, ptBRCatalog}
	matcher  = newMatcher(catalogs)
)

func newMatcher(cats []*Catalog) language.Matcher {
	tags := make([]language.Tag, 0, len(cats))
	for _, c := range cats {
		tags = append(tags, language.Make(c.locale))
	}
	return language.NewMatcher(tags)
}

// GetCatalog returns the catalog closest to locale, so "pt" and "pt-PT"
// resolve to pt-BR. Empty, malformed or unsupported locales get en-US.
func GetCatalog(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	for _, c := range catalogs {
		if c.locale == locale {
			return c
		}
	}
	if locale == "" {
		return catalogs[0]
	}
	_, index, confidence := matcher.Match(language.Make(locale))
	if confidence == language.No {
		return catalogs[0]
	}
	return catalogs[index]
}
