package i18n

import (
	"embed"
	"fmt"
	"path"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error
)

func loadBundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		files, err := localeFS.ReadDir("locales")
		if err != nil {
			bundleErr = fmt.Errorf("reading locales: %w", err)
			return
		}
		for _, f := range files {
			p := path.Join("locales", f.Name())
			data, err := localeFS.ReadFile(p)
			if err != nil {
				bundleErr = fmt.Errorf("reading %s: %w", p, err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, p); err != nil {
				bundleErr = fmt.Errorf("parsing %s: %w", p, err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Supported returns the language tags with bundled messages.
func Supported() []string {
	b, err := loadBundle()
	if err != nil {
		return nil
	}
	var out []string
	for _, tag := range b.LanguageTags() {
		out = append(out, tag.String())
	}
	return out
}

// Translations localizes message IDs into one language. It is safe for
// concurrent use.
type Translations struct {
	lang      string
	localizer *goi18n.Localizer
}

// New returns Translations for lang. An empty lang selects
// DefaultLanguage; an unsupported one is an error.
func New(lang string) (*Translations, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	b, err := loadBundle()
	if err != nil {
		return nil, err
	}
	supported := false
	for _, tag := range b.LanguageTags() {
		base, _ := tag.Base()
		if tag.String() == lang || base.String() == lang {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("language %q not supported", lang)
	}
	return &Translations{lang: lang, localizer: goi18n.NewLocalizer(b, lang)}, nil
}

// Lang returns the configured language.
func (t *Translations) Lang() string {
	return t.lang
}

// Message returns the localized text for id. Missing messages render as
// the id itself so a prompt is always produced.
func (t *Translations) Message(id string, data map[string]any) string {
	s, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return s
}
