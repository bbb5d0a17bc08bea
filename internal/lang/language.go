package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains ISO 639-1 language codes accepted as transcription
// hints by OpenAI's transcription API. This is not exhaustive but covers the
// languages agency interviews are conducted in plus the most common ones.
var validLanguages = map[string]bool{
	"af": true, // Afrikaans
	"ar": true, // Arabic
	"bg": true, // Bulgarian
	"bn": true, // Bengali
	"ca": true, // Catalan
	"cs": true, // Czech
	"da": true, // Danish
	"de": true, // German
	"el": true, // Greek
	"en": true, // English
	"es": true, // Spanish
	"et": true, // Estonian
	"fa": true, // Persian
	"fi": true, // Finnish
	"fr": true, // French
	"gu": true, // Gujarati
	"he": true, // Hebrew
	"hi": true, // Hindi
	"hr": true, // Croatian
	"hu": true, // Hungarian
	"id": true, // Indonesian
	"it": true, // Italian
	"ja": true, // Japanese
	"kn": true, // Kannada
	"ko": true, // Korean
	"lt": true, // Lithuanian
	"lv": true, // Latvian
	"mk": true, // Macedonian
	"ml": true, // Malayalam
	"mr": true, // Marathi
	"ms": true, // Malay
	"nl": true, // Dutch
	"no": true, // Norwegian
	"pa": true, // Punjabi
	"pl": true, // Polish
	"pt": true, // Portuguese
	"ro": true, // Romanian
	"ru": true, // Russian
	"sk": true, // Slovak
	"sl": true, // Slovenian
	"sr": true, // Serbian
	"sv": true, // Swedish
	"sw": true, // Swahili
	"ta": true, // Tamil
	"te": true, // Telugu
	"th": true, // Thai
	"tl": true, // Tagalog
	"tr": true, // Turkish
	"uk": true, // Ukrainian
	"ur": true, // Urdu
	"vi": true, // Vietnamese
	"zh": true, // Chinese
}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

// Validate checks if the language code is valid.
// Accepts ISO 639-1 codes (e.g., "en", "pt") and locales (e.g., "pt-BR").
// Empty means auto-detect, which is valid. Returns ErrInvalid if the base
// language is not recognized.
func Validate(lang string) error {
	if lang == "" {
		return nil
	}

	normalized := Normalize(lang)

	// Extract base language from locale (pt-br -> pt)
	base := normalized
	if idx := strings.Index(normalized, "-"); idx != -1 {
		base = normalized[:idx]
	}

	if !validLanguages[base] {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'pt', 'pt-BR'): %w",
			lang, ErrInvalid)
	}

	return nil
}

// BaseCode extracts the ISO 639-1 base language code from a locale.
// OpenAI's transcription API only accepts base codes, not regional variants.
// Examples: "pt-BR" -> "pt", "zh-CN" -> "zh", "en" -> "en"
func BaseCode(lang string) string {
	if lang == "" {
		return ""
	}
	normalized := Normalize(lang)
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}
