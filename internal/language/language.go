// Package language provides lightweight language detection over article
// titles and summaries. Script membership settles the high-confidence cases;
// everything in Latin script falls through to a stop-word frequency score.
package language

import (
	"strings"
	"unicode"
)

// Unknown is returned when no language clears the minimum match ratio.
const Unknown = "unknown"

// minMatchRatio is the fraction of words that must hit a language's
// stop-list before we claim that language.
const minMatchRatio = 0.05

// scriptShare is the fraction of letters that must belong to a script for
// the script-based checks to fire.
const scriptShare = 0.3

var stopWords = map[string][]string{
	"en": {"the", "and", "for", "that", "with", "this", "from", "have", "are", "was", "will", "has", "its", "his", "her", "they", "what", "when", "how", "why", "about", "into", "over", "after", "new", "more", "than", "been", "could", "would"},
	"es": {"el", "la", "los", "las", "de", "del", "en", "con", "por", "para", "que", "una", "uno", "este", "esta", "como", "más", "pero", "sus", "ser", "hay", "fue", "entre", "sobre", "también"},
	"fr": {"le", "la", "les", "des", "une", "dans", "pour", "que", "qui", "sur", "avec", "est", "son", "aux", "par", "pas", "plus", "ont", "cette", "mais", "être", "fait", "leur", "sans"},
	"de": {"der", "die", "das", "und", "ist", "von", "mit", "den", "des", "für", "auf", "ein", "eine", "nicht", "auch", "sich", "nach", "bei", "aus", "wird", "sind", "einer", "über", "zum"},
	"it": {"il", "la", "le", "di", "che", "per", "con", "del", "della", "una", "uno", "sono", "come", "più", "anche", "nel", "alla", "dei", "questo", "essere", "gli", "dal"},
	"pt": {"o", "a", "os", "as", "de", "do", "da", "em", "que", "com", "para", "uma", "um", "por", "mais", "como", "foi", "são", "dos", "das", "não", "ser", "tem", "sobre"},
}

var stopWordSets = func() map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(stopWords))
	for lang, words := range stopWords {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[w] = true
		}
		sets[lang] = set
	}
	return sets
}()

// Detect returns the ISO 639-1 code of the dominant language of title plus
// summary, or Unknown.
func Detect(title, summary string) string {
	text := strings.TrimSpace(title + " " + summary)
	if text == "" {
		return Unknown
	}

	if lang := detectScript(text); lang != "" {
		return lang
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return Unknown
	}

	bestLang := Unknown
	bestRatio := 0.0
	for lang, set := range stopWordSets {
		hits := 0
		for _, w := range words {
			w = strings.Trim(w, ".,:;!?\"'()[]")
			if set[w] {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(words))
		if ratio > bestRatio {
			bestRatio = ratio
			bestLang = lang
		}
	}

	if bestRatio < minMatchRatio {
		return Unknown
	}
	return bestLang
}

// detectScript claims a language when a large enough share of the letters
// belongs to a script that pins it down.
func detectScript(text string) string {
	var letters, han, kana, hangul, cyrillic, arabic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		}
	}
	if letters == 0 {
		return ""
	}

	share := func(n int) bool { return float64(n)/float64(letters) >= scriptShare }
	switch {
	case share(kana):
		return "ja"
	case share(hangul):
		return "ko"
	case share(han):
		// Han without kana: default to Chinese.
		return "zh"
	case share(cyrillic):
		return "ru"
	case share(arabic):
		return "ar"
	}
	return ""
}
