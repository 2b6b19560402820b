package extract

import "unicode"

// Characters tolerated alongside letters and digits before a rune counts
// as "special" for the noise-ratio penalty.
const plainPunctuation = " \n\t.,;:!?()-"

// Confidence scores trust in a page's extracted text on [0,1]. Native
// extraction starts at 1.0, OCR at 0.7; short texts and noisy character
// mixes are penalized multiplicatively.
func Confidence(text string, ocrUsed bool) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}

	confidence := 1.0
	if ocrUsed {
		confidence = 0.7
	}

	switch {
	case len(runes) < 100:
		confidence *= 0.5
	case len(runes) < 500:
		confidence *= 0.8
	}

	special := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if !runeIn(plainPunctuation, r) {
			special++
		}
	}
	if float64(special)/float64(len(runes)) > 0.3 {
		confidence *= 0.7
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

func runeIn(set string, r rune) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}
