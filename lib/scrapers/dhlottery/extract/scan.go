package extract

import (
	"regexp"
	"strings"
)

type Field int

const (
	FieldAccount Field = iota
	FieldAmount
	FieldBank
	FieldHolder
)

func (f Field) String() string {
	switch f {
	case FieldAccount:
		return "account"
	case FieldAmount:
		return "amount"
	case FieldBank:
		return "bank"
	case FieldHolder:
		return "holder"
	}
	return "unknown"
}

type Confidence int

const (
	// the value came from free text matched by a keyword regex
	ConfidenceText Confidence = iota
	// the key merely contains a field related token
	ConfidenceKeyToken
	// the key is one of the spellings the site is known to use
	ConfidenceKnownKey
	// the value came from a dedicated element on the page
	ConfidenceMarkup
)

// Candidate is an unvalidated value for one field.
type Candidate struct {
	Field      Field
	Value      any
	Priority   int
	Confidence Confidence
	// the key or pattern that produced the value
	Source string
}

type fieldSpec struct {
	keys   []string
	tokens []string
	// accept validates and formats a candidate
	accept func(c Candidate) (string, bool)
}

var fieldSpecs = map[Field]fieldSpec{
	FieldAccount: {
		keys: []string{
			"FxVrAccountNo", "VbankNum", "vbankNum", "AccountNo", "accountNo",
			"actNo", "ActNo", "vactNo", "VactNo", "fxdVactNo", "FxdVactNo",
		},
		tokens: []string{"account", "vbank", "vr", "actno", "vact", "acct", "fxvr", "계좌"},
		accept: func(c Candidate) (string, bool) {
			account := NormalizeAccount(Scalar(c.Value))
			return account, ValidAccount(account)
		},
	},
	FieldAmount: {
		keys:   []string{"Amt", "amt", "price", "payAmt", "amount"},
		tokens: []string{"amt", "amount", "price"},
		accept: func(c Candidate) (string, bool) {
			if Scalar(c.Value) == "" {
				return "", false
			}
			formatted := FormatWon(c.Value)
			return formatted, strings.HasSuffix(formatted, "원")
		},
	},
	FieldBank: {
		keys:   []string{"VbankBankName", "VBankName", "bankName", "bankNm", "bank"},
		tokens: []string{"bankcode", "bank", "은행"},
		accept: acceptBank,
	},
	FieldHolder: {
		keys: []string{
			"VBankAccountName", "BuyerName", "accountHolder", "holderName",
			"depositorName", "dpstrNm", "예금주", "입금자", "계좌주",
		},
		tokens: []string{"holder", "depositor", "buyer", "예금주", "입금자", "계좌주"},
		accept: func(c Candidate) (string, bool) {
			holder := strings.TrimSpace(Scalar(c.Value))
			return holder, ValidHolder(holder)
		},
	},
}

var bankCodeShape = regexp.MustCompile(`^\d{3}$`)

func acceptBank(c Candidate) (string, bool) {
	value := strings.TrimSpace(Scalar(c.Value))
	if value == "" {
		return "", false
	}
	lowered := strings.ToLower(c.Source)
	switch {
	case c.Confidence == ConfidenceKnownKey:
		if bankCodeShape.MatchString(value) {
			name, ok := BankByCode(value)
			return name, ok
		}
		return LookupBankName(value)
	case strings.Contains(lowered, "bankcode"):
		name, ok := BankByCode(value)
		return name, ok
	default:
		name, ok := FindBankName(value)
		return name, ok
	}
}

// Candidates lists every value in `obj` that could fill `field`: the known
// key spellings first, then every other key containing a field token.
func Candidates(obj *Object, field Field) []Candidate {
	spec := fieldSpecs[field]
	var out []Candidate

	known := make(map[string]bool, len(spec.keys))
	for _, key := range spec.keys {
		known[key] = true
		value, ok := obj.Get(key)
		if !ok || value == nil {
			continue
		}
		out = append(out, Candidate{
			Field:      field,
			Value:      value,
			Priority:   len(out),
			Confidence: ConfidenceKnownKey,
			Source:     key,
		})
	}

	for _, key := range obj.Keys {
		if known[key] {
			continue
		}
		lowered := strings.ToLower(key)
		for _, token := range spec.tokens {
			if !strings.Contains(lowered, token) {
				continue
			}
			value := obj.Values[key]
			if value == nil {
				break
			}
			out = append(out, Candidate{
				Field:      field,
				Value:      value,
				Priority:   len(out),
				Confidence: ConfidenceKeyToken,
				Source:     key,
			})
			break
		}
	}
	return out
}

// Accept returns the formatted value of the first candidate that
// validates, candidates are expected in priority order.
func Accept(field Field, cands []Candidate) (string, bool) {
	spec := fieldSpecs[field]
	for _, c := range cands {
		if c.Field != field {
			continue
		}
		if value, ok := spec.accept(c); ok {
			return value, true
		}
	}
	return "", false
}

// Fields is the result of scanning one payload.
type Fields struct {
	Account string
	Amount  string
	Bank    string
	Holder  string
}

func (f Fields) get(field Field) string {
	switch field {
	case FieldAccount:
		return f.Account
	case FieldAmount:
		return f.Amount
	case FieldBank:
		return f.Bank
	case FieldHolder:
		return f.Holder
	}
	return ""
}

func (f *Fields) set(field Field, value string) {
	switch field {
	case FieldAccount:
		f.Account = value
	case FieldAmount:
		f.Amount = value
	case FieldBank:
		f.Bank = value
	case FieldHolder:
		f.Holder = value
	}
}

func (f Fields) full() bool {
	return f.Account != "" && f.Amount != "" && f.Bank != "" && f.Holder != ""
}

// HasAccount reports whether a validated account number was found.
func (f Fields) HasAccount() bool {
	return f.Account != "" && ValidAccount(f.Account)
}

// Merge fills the empty fields of `f` from `other`.
func (f Fields) Merge(other Fields) Fields {
	for _, field := range scanOrder {
		if f.get(field) == "" {
			f.set(field, other.get(field))
		}
	}
	return f
}

var scanOrder = []Field{FieldAccount, FieldAmount, FieldBank, FieldHolder}

// FromPayload searches every object nested in `payload` and keeps, per
// field, the first value that validates. the bank defaults to kbank.
func FromPayload(payload any) Fields {
	var out Fields
	Walk(payload, func(obj *Object) bool {
		for _, field := range scanOrder {
			if out.get(field) != "" {
				continue
			}
			if value, ok := Accept(field, Candidates(obj, field)); ok {
				out.set(field, value)
			}
		}
		return !out.full()
	})
	if out.Bank == "" {
		out.Bank = DefaultBank.Name
	}
	return out
}
