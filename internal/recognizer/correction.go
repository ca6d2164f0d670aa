/**
 * In-pipeline character correction
 *
 * Lightweight single-pass correction applied inside the filter pipeline.
 * Distinct from the standalone ConfusionCorrector: this stage rewrites a
 * text in place from its character composition, it does not search the
 * substitution space.
 */

package recognizer

import (
	"regexp"
	"strings"
	"unicode"
)

// letterToDigit maps letters to the digits OCR commonly confuses them
// with when the surrounding context demands a digit.
var letterToDigit = map[rune]rune{
	'O': '0', 'Q': '0', 'D': '0',
	'I': '1', 'l': '1',
	'Z': '2',
	'A': '4',
	'S': '5',
	'G': '6',
	'T': '7',
	'B': '8',
	'g': '9', 'q': '9',
}

var upperAlnumPattern = regexp.MustCompile(`^[A-Z0-9]{3,}$`)

// correctObservations applies the correction rules to every observation,
// producing new observations flagged with the original text on change.
func correctObservations(observations []TextObservation) []TextObservation {
	corrected := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		text := applyCorrectionRules(obs.Text)
		if text != obs.Text {
			next := obs
			next.Text = text
			next.Corrected = true
			next.OriginalText = obs.Text
			corrected = append(corrected, next)
			continue
		}
		corrected = append(corrected, obs)
	}
	return corrected
}

// applyCorrectionRules rewrites common OCR confusions from character
// composition context.
func applyCorrectionRules(text string) string {
	result := text

	// A mostly-alphabetic text read digits where letters belong.
	if isMostlyLetters(result) {
		result = strings.NewReplacer("0", "O", "1", "I", "5", "S").Replace(result)
	} else if isMostlyDigits(result) {
		result = strings.NewReplacer("O", "0", "I", "1").Replace(result)
	}

	// Hub serials carry an "AT" prefix followed by digits only.
	if len(result) >= 7 && strings.HasPrefix(result, "AT") {
		chars := []rune(result)
		for i := 2; i < len(chars); i++ {
			if !unicode.IsLetter(chars[i]) {
				continue
			}
			if digit, ok := letterToDigit[chars[i]]; ok {
				chars[i] = digit
			}
		}
		return string(chars)
	}

	// For generic uppercase alphanumerics, a letter flanked by digits on
	// both sides is almost always a misread digit.
	if upperAlnumPattern.MatchString(result) {
		chars := []rune(result)
		for i := 1; i < len(chars)-1; i++ {
			if !unicode.IsLetter(chars[i]) {
				continue
			}
			if !unicode.IsDigit(chars[i-1]) || !unicode.IsDigit(chars[i+1]) {
				continue
			}
			if digit, ok := letterToDigit[chars[i]]; ok {
				chars[i] = digit
			}
		}
		return string(chars)
	}

	return result
}

func isMostlyLetters(text string) bool {
	if text == "" {
		return false
	}
	letters := 0
	runes := []rune(text)
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters)/float64(len(runes)) > 0.6
}

func isMostlyDigits(text string) bool {
	if text == "" {
		return false
	}
	digits := 0
	runes := []rune(text)
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits)/float64(len(runes)) > 0.6
}
