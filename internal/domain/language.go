package domain

import "strings"

// DefaultLanguage is used when a payment request does not name one
const DefaultLanguage = "fr"

var supportedLanguages = map[string]struct{}{
	"en": {}, "tr": {}, "ar": {}, "fr": {}, "de": {}, "es": {}, "it": {}, "pt": {}, "ru": {},
	"zh": {}, "ja": {}, "ko": {}, "nl": {}, "pl": {}, "sv": {}, "no": {}, "da": {}, "fi": {},
	"cs": {}, "el": {}, "he": {}, "hi": {}, "th": {}, "id": {}, "vi": {}, "uk": {},
}

var languageNames = map[string]string{
	"ENGLISH":    "en",
	"TURKISH":    "tr",
	"ARABIC":     "ar",
	"FRENCH":     "fr",
	"GERMAN":     "de",
	"SPANISH":    "es",
	"ITALIAN":    "it",
	"PORTUGUESE": "pt",
	"RUSSIAN":    "ru",
	"CHINESE":    "zh",
	"JAPANESE":   "ja",
	"KOREAN":     "ko",
	"DUTCH":      "nl",
	"POLISH":     "pl",
	"SWEDISH":    "sv",
	"NORWEGIAN":  "no",
	"DANISH":     "da",
	"FINNISH":    "fi",
	"CZECH":      "cs",
	"GREEK":      "el",
	"HEBREW":     "he",
	"HINDI":      "hi",
	"THAI":       "th",
	"INDONESIAN": "id",
	"VIETNAMESE": "vi",
	"UKRAINIAN":  "uk",
}

// NormalizeLanguage maps "en", "EN" or "english" to "en". It returns "" for
// anything unsupported.
func NormalizeLanguage(lang string) string {
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if _, ok := supportedLanguages[lower]; ok {
		return lower
	}
	return languageNames[strings.ToUpper(trimmed)]
}

// IsSupportedLanguage reports whether lang is a known code or English name
func IsSupportedLanguage(lang string) bool {
	return NormalizeLanguage(lang) != ""
}
