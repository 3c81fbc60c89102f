package services

import (
	"strings"
	"unicode"
)

// PhoneVariants expands a phone query into the forms the same number may be stored under:
// the trimmed input, the input without spaces or dashes, its digits, and the local
// (leading 0), national (country code) and international (+country code) spellings.
func PhoneVariants(phone, countryCode string) []string {
	raw := strings.TrimSpace(phone)
	clean := strings.NewReplacer(" ", "", "-", "").Replace(raw)
	digitsOnly := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	variants := []string{raw, clean, digitsOnly}

	if countryCode != "" {
		var subscriber string
		switch {
		case strings.HasPrefix(clean, "+"+countryCode):
			subscriber = clean[len(countryCode)+1:]
		case strings.HasPrefix(clean, countryCode):
			subscriber = clean[len(countryCode):]
		case strings.HasPrefix(clean, "0"):
			subscriber = clean[1:]
		}
		if subscriber != "" {
			variants = append(variants,
				"0"+subscriber,
				countryCode+subscriber,
				"+"+countryCode+subscriber,
			)
		}
	}

	seen := make(map[string]bool, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
