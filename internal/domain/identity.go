package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// IdentityPattern describes the plugin the bridge drives. An item whose
// normalized name contains every Required token is a high confidence match;
// one that only contains Fallback is a low confidence match.
type IdentityPattern struct {
	Required []string
	Fallback string
}

func DefaultIdentityPattern() IdentityPattern {
	return IdentityPattern{
		Required: []string{"archetype", "gojira"},
		Fallback: "gojira",
	}
}

func (p IdentityPattern) Validate() error {
	if len(p.Required) == 0 && NormalizeName(p.Fallback) == "" {
		return fmt.Errorf("identity pattern needs required tokens or a fallback token")
	}
	for _, token := range p.Required {
		if NormalizeName(token) == "" {
			return fmt.Errorf("identity token %q normalizes to nothing", token)
		}
	}

	return nil
}

// PatternClassifier is the default identity classifier.
type PatternClassifier struct {
	Pattern IdentityPattern
}

func (c PatternClassifier) Classify(name string) (Confidence, bool) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return "", false
	}

	if len(c.Pattern.Required) > 0 {
		exact := true
		for _, token := range c.Pattern.Required {
			if !strings.Contains(normalized, NormalizeName(token)) {
				exact = false
				break
			}
		}
		if exact {
			return ConfidenceHigh, true
		}
	}

	fallback := NormalizeName(c.Pattern.Fallback)
	if fallback != "" && strings.Contains(normalized, fallback) {
		return ConfidenceLow, true
	}

	return "", false
}

// NormalizeName lowercases s and strips everything that is not a letter or
// digit, so "Dry/Wet Mix" and "drywetmix" compare equal.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}

// ContainsAny reports whether normalized contains one of tokens.
func ContainsAny(normalized string, tokens []string) bool {
	for _, token := range tokens {
		t := NormalizeName(token)
		if t != "" && strings.Contains(normalized, t) {
			return true
		}
	}

	return false
}
