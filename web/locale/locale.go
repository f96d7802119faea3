// Package locale translates UI strings and picks the language of a request.
package locale

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// ContextKey holds the resolved language code in the gin context.
const ContextKey = "lang"

var (
	i18nBundle *i18n.Bundle
	localizers = &sync.Map{}
	matcher    language.Matcher
	supported  []string
)

// InitLocalizer loads every translation file under dir of fsys and
// restricts negotiation to the configured locales.
func InitLocalizer(fsys fs.FS, dir string, locales []config.Locale) error {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
	if err != nil {
		return err
	}

	tags := make([]language.Tag, 0, len(locales))
	codes := make([]string, 0, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l.Code)
		if err != nil {
			logger.Warningf("skipping locale %q: %v", l.Code, err)
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, l.Code)
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
		codes = []string{"en"}
	}

	i18nBundle = bundle
	matcher = language.NewMatcher(tags)
	supported = codes
	localizers = &sync.Map{}
	return nil
}

func localizer(lang string) *i18n.Localizer {
	if l, ok := localizers.Load(lang); ok {
		return l.(*i18n.Localizer)
	}
	l, _ := localizers.LoadOrStore(lang, i18n.NewLocalizer(i18nBundle, lang))
	return l.(*i18n.Localizer)
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any, len(params))
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// I18n translates key into lang. Params are "name==value" pairs. A missing
// message falls back to the key itself.
func I18n(lang, key string, params ...string) string {
	if i18nBundle == nil {
		return key
	}
	msg, err := localizer(lang).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Debugf("Failed to localize %q: %v", key, err)
		return key
	}
	return msg
}

// Resolve picks the language: a supported user locale wins, then the lang
// cookie, then Accept-Language, then the first configured locale.
func Resolve(userLocale, cookie, acceptLanguage string) string {
	if len(supported) == 0 {
		return "en"
	}
	for _, candidate := range []string{userLocale, cookie} {
		for _, code := range supported {
			if candidate != "" && candidate == code {
				return code
			}
		}
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, confidence := matcher.Match(tags...)
			if confidence != language.No {
				return supported[idx]
			}
		}
	}
	return supported[0]
}

// LocalizerMiddleware stores the cookie/header language; handlers that know
// the session user refine it with the user's locale.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie("lang")
		c.Set(ContextKey, Resolve("", cookie, c.GetHeader("Accept-Language")))
		c.Next()
	}
}
