package extract

import (
	"dhapi/lib/textutil"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonAccountChars = regexp.MustCompile(`[^0-9-]`)
	repeatedDashes  = regexp.MustCompile(`-{2,}`)
	accountShape    = regexp.MustCompile(`^[0-9][0-9-]*[0-9]$`)
)

// digit runs that show up on the charge pages but are never accounts
var (
	// 1588-xxxx style customer service / ARS numbers
	arsNumberShape = regexp.MustCompile(`^1[5-9][0-9]{2}-?[0-9]{4}$`)
	// area code - exchange - subscriber
	phoneNumberShape = regexp.MustCompile(`^0\d{1,2}-\d{3,4}-\d{4}$`)
	hotlineNumbers   = map[string]bool{
		"1588-6450": true,
	}
)

const (
	minAccountDigits = 10
	maxAccountDigits = 16
)

// NormalizeAccount keeps digits and single dashes, "  123--456 " becomes "123-456".
func NormalizeAccount(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, " ", "")
	value = nonAccountChars.ReplaceAllString(value, "")
	value = repeatedDashes.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

// ValidAccount reports whether `value` is shaped like a virtual account
// number once normalized.
func ValidAccount(value string) bool {
	account := NormalizeAccount(value)
	if account == "" || !accountShape.MatchString(account) {
		return false
	}
	digits := len(textutil.DigitsOnly(account))
	if digits < minAccountDigits || digits > maxAccountDigits {
		return false
	}
	if arsNumberShape.MatchString(account) || hotlineNumbers[account] {
		return false
	}
	if phoneNumberShape.MatchString(account) {
		return false
	}
	return true
}

// ValidHolder accepts 2 to 30 characters of non-blank text.
func ValidHolder(value string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	return n >= 2 && n <= 30
}
