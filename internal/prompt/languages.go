package prompt

import (
	"strings"

	"golang.org/x/text/language"
)

// languageNames maps ISO codes to English names. Locale variants that need a
// distinct name are listed explicitly; others fall back to their base language.
var languageNames = map[string]string{
	"ar":    "Arabic",
	"bg":    "Bulgarian",
	"bs":    "Bosnian",
	"ca":    "Catalan",
	"cs":    "Czech",
	"da":    "Danish",
	"de":    "German",
	"de-AT": "Austrian German",
	"de-CH": "Swiss German",
	"el":    "Greek",
	"en":    "English",
	"en-GB": "British English",
	"en-US": "American English",
	"es":    "Spanish",
	"es-MX": "Mexican Spanish",
	"et":    "Estonian",
	"fi":    "Finnish",
	"fr":    "French",
	"fr-CA": "Canadian French",
	"fr-CH": "Swiss French",
	"he":    "Hebrew",
	"hr":    "Croatian",
	"hu":    "Hungarian",
	"id":    "Indonesian",
	"is":    "Icelandic",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"lt":    "Lithuanian",
	"lv":    "Latvian",
	"nb":    "Norwegian Bokmål",
	"nl":    "Dutch",
	"nl-BE": "Flemish",
	"no":    "Norwegian",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"pt-BR": "Brazilian Portuguese",
	"pt-PT": "European Portuguese",
	"ro":    "Romanian",
	"ru":    "Russian",
	"sk":    "Slovak",
	"sl":    "Slovenian",
	"sr":    "Serbian",
	"sv":    "Swedish",
	"th":    "Thai",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"vi":    "Vietnamese",
	"zh":    "Chinese",
	"zh-CN": "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
}

// Languages whose plural rules need three forms ("one | few | many").
var threeFormLanguages = map[string]bool{
	"bs": true, "cs": true, "hr": true, "lt": true, "lv": true, "pl": true,
	"ro": true, "ru": true, "sk": true, "sr": true, "uk": true,
}

// LanguageName returns the English name for a locale code such as "fr-FR" or
// "pt_BR". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return code
	}
	if name, ok := languageNames[code]; ok {
		return name
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.Exact {
		if name, ok := languageNames[base.String()+"-"+region.String()]; ok {
			return name
		}
	}
	if name, ok := languageNames[base.String()]; ok {
		return name
	}
	return code
}

// PluralForms returns how many pipe-separated plural forms the language expects.
func PluralForms(code string) int {
	tag, err := language.Parse(code)
	if err != nil {
		return 2
	}
	base, _ := tag.Base()
	if threeFormLanguages[base.String()] {
		return 3
	}
	return 2
}
