// Package email holds small address helpers shared by account provisioning.
package email

import (
	"strings"
	"unicode"
)

// Normalize lowercases and trims an address and reports whether it has the
// minimal user@host shape. Full RFC validation is left to the mail system.
func Normalize(address string) (string, bool) {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.IndexByte(address, '@')
	ok := at > 0 && at < len(address)-1 && !strings.ContainsAny(address, " \t")
	return address, ok
}

// DeriveNameFromEmail guesses a first and last name from the address local
// part, for accounts provisioned without explicit names.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
