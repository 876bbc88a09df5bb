// Package i18n localizes API messages with go-i18n bundles loaded from
// TOML files.
package i18n

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/amoylab/taskflow/internal/common/cnst"
)

// I18n manages internationalization and translations
type I18n struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

// NewI18n creates a new I18n instance with the specified default language
func NewI18n(defaultLang language.Tag) *I18n {
	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	return &I18n{
		bundle:      bundle,
		defaultLang: defaultLang,
	}
}

// Load creates a translator with English as fallback and loads dir
func Load(dir string) (*I18n, error) {
	t := NewI18n(language.English)
	if err := t.LoadTranslations(dir); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTranslations loads every .toml file of a directory
func (i *I18n) LoadTranslations(translationsDir string) error {
	files, err := os.ReadDir(translationsDir)
	if err != nil {
		return fmt.Errorf("failed to read translations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}
		if _, err := i.bundle.LoadMessageFile(filepath.Join(translationsDir, file.Name())); err != nil {
			return fmt.Errorf("failed to load %s: %w", file.Name(), err)
		}
	}
	return nil
}

// Translate returns a localized string for the given message ID and
// language, or the message ID itself when there is none
func (i *I18n) Translate(msgID string, lang string, templateData map[string]any) string {
	if i == nil {
		return msgID
	}
	localizer := i18n.NewLocalizer(i.bundle, lang, i.defaultLang.String())

	lc := &i18n.LocalizeConfig{MessageID: msgID}
	if len(templateData) > 0 {
		lc.TemplateData = templateData
	}
	msg, err := localizer.Localize(lc)
	if err != nil {
		return msgID
	}
	return msg
}

// TranslateContext translates using the language negotiated for the request
func (i *I18n) TranslateContext(c *gin.Context, msgID string, templateData map[string]any) string {
	return i.Translate(msgID, Lang(c), templateData)
}

// Middleware stores the request language and the translator in the gin
// context
func (i *I18n) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, getLanguageFromRequest(c.Request))
		c.Set(cnst.CtxKeyTranslator, i)
		c.Next()
	}
}

// Lang returns the language negotiated by Middleware
func Lang(c *gin.Context) string {
	if lang := c.GetString(cnst.XLang); lang != "" {
		return lang
	}
	return cnst.LangDefault
}

// FromContext returns the translator stored by Middleware, or nil
func FromContext(c *gin.Context) *I18n {
	v, ok := c.Get(cnst.CtxKeyTranslator)
	if !ok {
		return nil
	}
	t, _ := v.(*I18n)
	return t
}

// TranslateMessage translates with the translator and language of c
func TranslateMessage(c *gin.Context, msgID string, data map[string]any) string {
	return FromContext(c).Translate(msgID, Lang(c), data)
}

// getLanguageFromRequest reads X-Lang, then Accept-Language
func getLanguageFromRequest(r *http.Request) string {
	if lang := r.Header.Get(cnst.XLang); lang != "" {
		return normalizeLang(lang)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		first := strings.TrimSpace(strings.Split(strings.Split(accept, ",")[0], ";")[0])
		return normalizeLang(first)
	}
	return cnst.LangDefault
}

// normalizeLang reduces a language tag to a supported base language
func normalizeLang(lang string) string {
	code := strings.ToLower(strings.Split(lang, "-")[0])
	if cnst.IsSupportedLang(code) {
		return code
	}
	return cnst.LangDefault
}
