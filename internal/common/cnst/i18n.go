package cnst

const (
	LangEN      = "en"
	LangZH      = "zh"
	LangDefault = LangEN
)

// SupportedLangs are the base languages with bundled translations
var SupportedLangs = []string{LangEN, LangZH}

const (
	// XLang is both the request header and the gin context key for the
	// resolved language
	XLang            = "X-Lang"
	CtxKeyTranslator = "translator"
)

// IsSupportedLang reports whether code is one of SupportedLangs
func IsSupportedLang(code string) bool {
	for _, l := range SupportedLangs {
		if l == code {
			return true
		}
	}
	return false
}
