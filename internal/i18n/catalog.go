// Package i18n resolves the translated labels written into activity entries.
//
// Catalogs are JSON files under locales/, one per host locale ("fr_FR").
// Requested locales are matched to the closest available catalog; keys missing
// from that catalog fall back to the default locale, and keys missing
// everywhere are returned unchanged, like the host's own translator.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

type catalogFile struct {
	Locale   string            `json:"locale"`
	Messages map[string]string `json:"messages"`
}

// Catalog is a read-only set of translations. It is safe for concurrent use.
type Catalog struct {
	builder  *catalog.Builder
	matcher  language.Matcher
	tags     []language.Tag
	messages map[language.Tag]map[string]string
}

// LoadEmbedded loads the catalogs shipped with the service.
func LoadEmbedded(defaultLocale string) (*Catalog, error) {
	return LoadFromFS(embeddedLocales, defaultLocale)
}

// LoadFromFS loads every locales/*.json file from fsys. defaultLocale must be
// one of them.
func LoadFromFS(fsys fs.FS, defaultLocale string) (*Catalog, error) {
	defaultTag, err := parseLocale(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale: %w", err)
	}

	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	c := &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(defaultTag)),
		messages: make(map[language.Tag]map[string]string),
	}

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if err := c.add(path, file); err != nil {
			return nil, err
		}
	}

	if _, ok := c.messages[defaultTag]; !ok {
		return nil, fmt.Errorf("default locale %s has no catalog", defaultLocale)
	}

	// The matcher falls back to its first tag.
	c.tags = append(c.tags, defaultTag)
	for tag := range c.messages {
		if tag != defaultTag {
			c.tags = append(c.tags, tag)
		}
	}
	rest := c.tags[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

func (c *Catalog) add(path string, file catalogFile) error {
	tag, err := parseLocale(file.Locale)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	if _, exists := c.messages[tag]; exists {
		return fmt.Errorf("catalog %s: locale %s defined twice", path, file.Locale)
	}

	msgs := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", path)
		}
		// Labels take no arguments; a literal percent sign must not be read as a verb.
		if err := c.builder.SetString(tag, key, strings.ReplaceAll(value, "%", "%%")); err != nil {
			return fmt.Errorf("catalog %s: key %s: %w", path, key, err)
		}
		msgs[key] = value
	}
	c.messages[tag] = msgs
	return nil
}

// Translate returns the label for key in the catalog closest to locale.
func (c *Catalog) Translate(locale, key string) string {
	tag := c.match(locale)
	if _, ok := c.messages[tag][key]; !ok {
		tag = c.tags[0]
		if _, ok := c.messages[tag][key]; !ok {
			return key
		}
	}
	return message.NewPrinter(tag, message.Catalog(c.builder)).Sprintf(key)
}

// Locales returns the available locales in host notation, default first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = strings.ReplaceAll(tag.String(), "-", "_")
	}
	return out
}

func (c *Catalog) match(locale string) language.Tag {
	requested, err := parseLocale(locale)
	if err != nil {
		return c.tags[0]
	}
	_, idx, _ := c.matcher.Match(requested)
	return c.tags[idx]
}

// parseLocale accepts host locales ("fr_FR") as well as BCP 47 tags.
func parseLocale(locale string) (language.Tag, error) {
	s := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if s == "" {
		return language.Und, fmt.Errorf("empty locale")
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return tag, nil
}
