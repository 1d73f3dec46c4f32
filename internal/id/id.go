package id

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSubaccount is used when an account has no subaccount.
const DefaultSubaccount = "0000"

// codeLen is the width of account, subaccount and supplier numbers.
const codeLen = 4

// IsCode reports whether s is a 4-digit code like "5700".
func IsCode(s string) bool {
	if len(s) != codeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAccountCode returns an account code like "5700-0001".
func FormatAccountCode(number, subaccount string) string {
	if subaccount == "" {
		subaccount = DefaultSubaccount
	}
	return number + "-" + subaccount
}

// ParseAccountCode parses "5700-0001" into number and subaccount.
// A bare "5700" yields subaccount "0000".
func ParseAccountCode(code string) (number, subaccount string, err error) {
	code = strings.TrimSpace(code)
	number, subaccount, found := strings.Cut(code, "-")
	if !found {
		subaccount = DefaultSubaccount
	}
	if !IsCode(number) {
		return "", "", fmt.Errorf("invalid account number in code %q", code)
	}
	if !IsCode(subaccount) {
		return "", "", fmt.Errorf("invalid subaccount in code %q", code)
	}
	return number, subaccount, nil
}

// ParseRecordID parses a store-assigned record ID. IDs are positive.
func ParseRecordID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record ID %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid record ID %q: must be positive", s)
	}
	return v, nil
}
