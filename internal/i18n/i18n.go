// Package i18n holds the server-side message catalogs and picks a locale per request.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// LocalsKey is the Fiber locals key under which the request Localizer is stored.
const LocalsKey = "localizer"

//go:embed locales/*.json
var localeFS embed.FS

type Catalog struct {
	fallback string
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Load reads every embedded locale. fallback must be one of them.
func Load(fallback string) (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	messages := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		var dict map[string]string
		if err := json.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", e.Name(), err)
		}
		messages[strings.TrimSuffix(e.Name(), ".json")] = dict
	}

	if _, ok := messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q not found", fallback)
	}

	// The fallback goes first: the matcher treats tags[0] as the default.
	codes := make([]string, 0, len(messages))
	for code := range messages {
		if code != fallback {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	tags := []language.Tag{language.Make(fallback)}
	for _, code := range codes {
		tags = append(tags, language.Make(code))
	}

	return &Catalog{
		fallback: fallback,
		messages: messages,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
	}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog with English as fallback.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load("en")
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Locales lists the supported locale codes, fallback first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Match picks the best supported locale. An explicit choice wins over the
// Accept-Language header.
func (c *Catalog) Match(explicit, acceptLanguage string) string {
	if explicit != "" {
		if _, ok := c.messages[explicit]; ok {
			return explicit
		}
	}
	if acceptLanguage == "" {
		return c.fallback
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(desired...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx].String()
}

// T resolves key in locale, falling back to the fallback locale and finally
// to the key itself. {0}, {1}... are replaced by args.
func (c *Catalog) T(locale, key string, args ...any) string {
	msg, ok := c.messages[locale][key]
	if !ok {
		msg, ok = c.messages[c.fallback][key]
	}
	if !ok {
		msg = key
	}
	for i, a := range args {
		msg = strings.ReplaceAll(msg, "{"+strconv.Itoa(i)+"}", fmt.Sprint(a))
	}
	return msg
}

// Localizer binds a catalog to one request locale.
type Localizer struct {
	catalog *Catalog
	Locale  string
}

func (c *Catalog) For(locale string) *Localizer {
	if _, ok := c.messages[locale]; !ok {
		locale = c.fallback
	}
	return &Localizer{catalog: c, Locale: locale}
}

func (l *Localizer) T(key string, args ...any) string {
	return l.catalog.T(l.Locale, key, args...)
}
