// Package score renders free-text fit score analyses as a canonical "value/scale" string.
package score

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Fallback is shown when a score analysis carries no recognizable number.
const Fallback = "Score Available"

// maxLabelLength is the longest first line that is shown as-is.
const maxLabelLength = 50

var (
	labeledPattern  = regexp.MustCompile(`(?i)Score:\s*(\d+(?:\.\d+)?)\s*(/\s*\d+)?(\s*%?)`)
	percentPattern  = regexp.MustCompile(`^(\d+)%`)
	fractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	numberPattern   = regexp.MustCompile(`^(\d+)(?:\.\d+)?$`)
)

// Normalize maps arbitrary analysis text to a canonical score string.
// The boolean is false only for empty input, which callers render as a placeholder.
//
// Rules are tried in order and the first match wins:
//  1. a labeled "Score: N", "Score: N/D" or "Score: N%" anywhere in the text
//  2. a leading "N%"
//  3. a leading "N/D"
//  4. the whole text is a single integer or decimal
//  5. the first line, if short enough, otherwise Fallback
func Normalize(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if m := labeledPattern.FindStringSubmatch(text); m != nil {
		value, denominator := m[1], strings.TrimSpace(strings.TrimPrefix(m[2], "/"))
		switch {
		case strings.Contains(m[3], "%"):
			return integerPart(value) + "/100", true
		case denominator != "":
			return value + "/" + denominator, true
		default:
			return integerPart(value) + "/100", true
		}
	}

	if m := percentPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "/100", true
	}

	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "/" + m[2], true
	}

	if m := numberPattern.FindStringSubmatch(text); m != nil {
		return integerPart(m[1]) + "/100", true
	}

	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if utf8.RuneCountInString(firstLine) > maxLabelLength || firstLine == "" {
		return Fallback, true
	}
	return firstLine, true
}

// NormalizeOr is Normalize with a placeholder substituted for the null result.
func NormalizeOr(text, placeholder string) string {
	if s, ok := Normalize(text); ok {
		return s
	}
	return placeholder
}

// integerPart truncates a decimal string and drops leading zeros.
func integerPart(value string) string {
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimLeft(value, "0")
	if value == "" {
		return "0"
	}
	return value
}
