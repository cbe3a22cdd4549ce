package extract

import (
	"dhapi/lib/textutil"
	"strings"

	"github.com/antzucaro/matchr"
)

type Bank struct {
	Code string
	Name string
}

// DefaultBank is assumed when a payload names an account but no bank,
// the site only issues kbank virtual accounts.
var DefaultBank = Bank{Code: "089", Name: "케이뱅크"}

var Banks = []Bank{
	{Code: "004", Name: "국민은행"},
	{Code: "011", Name: "농협은행"},
	{Code: "020", Name: "우리은행"},
	{Code: "023", Name: "SC제일은행"},
	{Code: "031", Name: "대구은행"},
	{Code: "032", Name: "부산은행"},
	{Code: "034", Name: "광주은행"},
	{Code: "035", Name: "제주은행"},
	{Code: "037", Name: "전북은행"},
	{Code: "039", Name: "경남은행"},
	{Code: "071", Name: "우체국"},
	{Code: "081", Name: "하나은행"},
	{Code: "088", Name: "신한은행"},
	{Code: "089", Name: "케이뱅크"},
	{Code: "090", Name: "카카오뱅크"},
}

// names that appear in page text, ordered longest first where one name
// contains another.
var bankNameVocabulary = []string{
	"케이뱅크",
	"카카오뱅크",
	"SC제일은행",
	"국민은행",
	"신한은행",
	"우리은행",
	"하나은행",
	"농협은행",
	"기업은행",
	"대구은행",
	"부산은행",
	"광주은행",
	"제주은행",
	"전북은행",
	"경남은행",
	"우체국",
}

var banksByCode = func() map[string]string {
	out := make(map[string]string, len(Banks))
	for _, b := range Banks {
		out[b.Code] = b.Name
	}
	return out
}()

// BankByCode maps a three digit bank code to its name.
func BankByCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	// codes sometimes arrive as numbers, "89" is "089"
	for len(code) > 0 && len(code) < 3 {
		code = "0" + code
	}
	name, ok := banksByCode[code]
	return name, ok
}

// FindBankName returns the first known bank name that occurs in `text`.
func FindBankName(text string) (string, bool) {
	best := -1
	name := ""
	for _, candidate := range bankNameVocabulary {
		idx := strings.Index(text, candidate)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			name = candidate
		}
	}
	return name, best >= 0
}

const bankNameSimilarity = 0.9

// CanonicalBankName maps spellings like "케이 뱅크" or "K뱅크(케이뱅크)" onto
// the vocabulary. unknown names are returned trimmed and unchanged.
func CanonicalBankName(value string) string {
	value = strings.TrimSpace(value)
	if name, ok := LookupBankName(value); ok {
		return name
	}
	return value
}

// LookupBankName resolves a bank code or a spelling of a known bank, it
// fails for anything that is not close to the vocabulary.
func LookupBankName(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if name, ok := BankByCode(value); ok {
		return name, true
	}
	if name, ok := FindBankName(value); ok {
		return name, true
	}
	// "케이 뱅크"
	for _, candidate := range bankNameVocabulary {
		if textutil.MatchName(value, []string{textutil.NormalizeName(candidate)}) {
			return candidate, true
		}
	}

	normalized := textutil.NormalizeName(value)
	bestScore := 0.0
	best := ""
	for _, candidate := range bankNameVocabulary {
		score := matchr.JaroWinkler(normalized, textutil.NormalizeName(candidate), false)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore >= bankNameSimilarity {
		return best, true
	}
	return "", false
}
