// Package i18n renders validation messages in the caller's language.
//
// Catalogs are YAML documents embedded in the binary, one per locale.
// Nested keys are flattened with dots, so
//
//	user:
//	  name:
//	    required: "Nome é obrigatório"
//
// answers the key "user.name.required". Templates use fmt verbs and receive
// the violation's arguments.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/requestcontext"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Catalog holds translated message templates for a set of locales.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
	messages  map[language.Tag]map[string]string
}

// Load builds a Catalog from the embedded locale files. fallback must be one
// of them; it answers requests no other locale matches.
func Load(fallback string) (*Catalog, error) {
	entries, err := embedded.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	files := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := embedded.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", e.Name(), err)
		}
		files[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = data
	}
	return Parse(fallback, files)
}

// Parse builds a Catalog from raw YAML documents keyed by locale tag.
func Parse(fallback string, files map[string][]byte) (*Catalog, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback locale %q: %w", fallback, err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Catalog{fallback: fb, messages: make(map[language.Tag]map[string]string, len(files))}
	// The matcher prefers the first tag on ties, so the fallback goes first.
	c.supported = append(c.supported, fb)
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(files[name], &doc); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", name, err)
		}
		flat := make(map[string]string)
		flatten("", doc, flat)
		c.messages[tag] = flat
		if tag != fb {
			c.supported = append(c.supported, tag)
		}
	}
	if _, ok := c.messages[fb]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no catalog", fallback)
	}
	c.matcher = language.NewMatcher(c.supported)
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Negotiate picks the best supported locale for an Accept-Language header.
func (c *Catalog) Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback.String()
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback.String()
	}
	return c.supported[idx].String()
}

// Supported lists the loaded locales, fallback first.
func (c *Catalog) Supported() []string {
	out := make([]string, 0, len(c.supported))
	for _, t := range c.supported {
		out = append(out, t.String())
	}
	return out
}

// Translate renders key in locale, falling back to the fallback locale.
// ok is false when neither has the key.
func (c *Catalog) Translate(locale, key string, args ...any) (msg string, ok bool) {
	tmpl, ok := c.lookup(locale, key)
	if !ok {
		return "", false
	}
	if len(args) == 0 {
		return tmpl, true
	}
	return fmt.Sprintf(tmpl, args...), true
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	if tag, err := language.Parse(locale); err == nil {
		_, idx, conf := c.matcher.Match(tag)
		if conf != language.No {
			if tmpl, ok := c.messages[c.supported[idx]][key]; ok {
				return tmpl, true
			}
		}
	}
	tmpl, ok := c.messages[c.fallback][key]
	return tmpl, ok
}

// Translator returns a function rendering violations in the locale carried by
// ctx. A nil Catalog yields each violation's default message.
func (c *Catalog) Translator(ctx context.Context) func(v dErrors.Violation) string {
	locale := requestcontext.Locale(ctx)
	return func(v dErrors.Violation) string {
		if c == nil || v.Key == "" {
			return v.Message
		}
		if msg, ok := c.Translate(locale, v.Key, v.Args...); ok {
			return msg
		}
		return v.Message
	}
}
