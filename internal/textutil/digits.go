package textutil

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsDigit reports whether r is a decimal digit.
func IsDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// DigitCount returns the number of decimal digits in text.
func DigitCount(text string) int {
	count := 0
	for _, r := range text {
		if IsDigit(r) {
			count++
		}
	}
	return count
}

// Digits returns the decimal digits of text in order.
func Digits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Length returns the length of text in code points.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// ContainsYearLiteral reports whether text holds a whole word that is a
// four-digit ASCII number in [minYear, maxYear]. Words are maximal runs of
// letters, digits, marks and underscores.
func ContainsYearLiteral(text string, minYear, maxYear int) bool {
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && isYearWord(text[start:i], minYear, maxYear) {
			return true
		}
		start = -1
	}
	return start >= 0 && isYearWord(text[start:], minYear, maxYear)
}

func isYearWord(word string, minYear, maxYear int) bool {
	if len(word) != 4 {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	year, err := strconv.Atoi(word)
	if err != nil {
		return false
	}
	return year >= minYear && year <= maxYear
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Snippet collapses whitespace and truncates text to limit code points for
// log lines and error messages.
func Snippet(text string, limit int) string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return "<empty>"
	}
	runes := []rune(clean)
	if limit > 0 && len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
