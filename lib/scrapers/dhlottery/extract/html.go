package extract

import (
	"bytes"
	"dhapi/lib/htmlutil"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// accountPattern finds an account number in prose, `bank` and `account`
// are submatch indexes (0 when the pattern has no such group).
type accountPattern struct {
	name    string
	re      *regexp.Regexp
	bank    int
	account int
}

var textAccountPatterns = []accountPattern{
	{
		name:    "label-then-account",
		re:      regexp.MustCompile(`(?:고정\s*가상계좌|전용\s*가상계좌|가상계좌|입금계좌|계좌번호)\s*(?:\[\s*([^\]\[]+)\s*\])?\s*[:：]?\s*([0-9][0-9\- ]{8,30}[0-9])`),
		bank:    1,
		account: 2,
	},
	{
		name:    "account-then-label",
		re:      regexp.MustCompile(`([0-9][0-9\- ]{8,30}[0-9])\s*(?:\(|\[)?\s*(?:가상계좌|입금계좌|계좌번호)`),
		account: 1,
	},
	{
		name:    "bracketed-bank",
		re:      regexp.MustCompile(`\[\s*([^\]\[]{2,20})\s*\]\s*([0-9][0-9\- ]{8,30}[0-9])`),
		bank:    1,
		account: 2,
	},
	{
		name:    "bank-then-account",
		re:      regexp.MustCompile(`(케이뱅크|카카오뱅크|SC제일은행|[가-힣]{2,8}은행|우체국)\s*[:：]?\s*([0-9][0-9\- ]{8,30}[0-9])`),
		bank:    1,
		account: 2,
	},
}

// searched in the raw markup when the visible text yields nothing, the
// account is sometimes only present inside attributes or scripts.
var rawAccountPattern = regexp.MustCompile(`(?:케이뱅크|카카오뱅크|은행|bank)[^0-9]{0,80}([0-9]{3}-[0-9]{4}-[0-9]{3}-[0-9]{4})`)

var (
	amountPattern = regexp.MustCompile(`[0-9][0-9,]{2,15}\s*원`)
	holderPattern = regexp.MustCompile(`(?:예금주|입금자명|계좌주(?:명)?(?:\(ID\))?|수취인)\s*[:：]?\s*([가-힣A-Za-z0-9\(\)\.\-_*]{2,40})`)
)

// TextCandidates runs the keyword regexes over plain text, the result is
// unvalidated and in pattern order.
func TextCandidates(text string) []Candidate {
	var out []Candidate
	add := func(field Field, value, source string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		out = append(out, Candidate{
			Field:      field,
			Value:      value,
			Priority:   len(out),
			Confidence: ConfidenceText,
			Source:     source,
		})
	}

	for _, p := range textAccountPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			if p.bank > 0 {
				add(FieldBank, m[p.bank], p.name)
			}
			// the digit run may swallow a neighbouring number ("...6789 50,000원"),
			// so the first token alone is tried before the whole run.
			account := strings.TrimSpace(m[p.account])
			if head, _, ok := strings.Cut(account, " "); ok && strings.Contains(head, "-") {
				add(FieldAccount, head, p.name)
			}
			add(FieldAccount, account, p.name)
		}
	}
	for _, m := range amountPattern.FindAllString(text, -1) {
		add(FieldAmount, strings.ReplaceAll(m, " ", ""), "amount")
	}
	for _, m := range holderPattern.FindAllStringSubmatch(text, -1) {
		add(FieldHolder, m[1], "holder")
	}
	if name, ok := FindBankName(text); ok {
		add(FieldBank, name, "vocabulary")
	}
	return out
}

func acceptText(field Field, cands []Candidate) (string, bool) {
	for _, c := range cands {
		if c.Field != field {
			continue
		}
		value := Scalar(c.Value)
		switch field {
		case FieldAccount:
			account := NormalizeAccount(value)
			if ValidAccount(account) {
				return account, true
			}
		case FieldAmount:
			if _, ok := digitsIn(value); ok {
				return value, true
			}
		case FieldBank:
			if name, ok := FindBankName(value); ok {
				return name, true
			}
		case FieldHolder:
			if ValidHolder(value) {
				return value, true
			}
		}
	}
	return "", false
}

func digitsIn(s string) (string, bool) {
	var out strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			out.WriteRune(c)
		}
	}
	return out.String(), out.Len() > 0
}

// FromHTML extracts fields from a rendered page. the dedicated markup on
// the charge page wins over anything found in prose.
func FromHTML(body []byte) Fields {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Fields{}
	}
	return FromDocument(doc, body)
}

// FromDocument is FromHTML for an already parsed page, `raw` is the
// original markup used for the last resort pattern.
func FromDocument(doc *goquery.Document, raw []byte) Fields {
	var out Fields

	contents := doc.Find("#contents")
	if contents.Length() > 0 {
		var markup []Candidate
		if span := contents.Find("span").First(); span.Length() > 0 {
			markup = append(markup, Candidate{
				Field:      FieldAccount,
				Value:      strings.TrimSpace(span.Text()),
				Confidence: ConfidenceMarkup,
				Source:     "#contents span",
			})
		}
		if amount := contents.Find(".color_key1").First(); amount.Length() > 0 {
			markup = append(markup, Candidate{
				Field:      FieldAmount,
				Value:      strings.TrimSpace(amount.Text()),
				Confidence: ConfidenceMarkup,
				Source:     "#contents .color_key1",
			})
		}
		out.Account, _ = acceptText(FieldAccount, markup)
		out.Amount, _ = acceptText(FieldAmount, markup)
	}

	text := htmlutil.VisibleText(doc.Nodes...)
	cands := TextCandidates(text)
	for _, field := range scanOrder {
		if out.get(field) != "" {
			continue
		}
		if value, ok := acceptText(field, cands); ok {
			out.set(field, value)
		}
	}

	if out.Account == "" {
		for _, m := range rawAccountPattern.FindAllSubmatch(raw, -1) {
			account := NormalizeAccount(string(m[1]))
			if ValidAccount(account) {
				out.Account = account
				break
			}
		}
	}
	return out
}

// HiddenInputs collects every named input of the page, the first
// occurrence of a name wins.
func HiddenInputs(doc *goquery.Document) *Object {
	out := NewObject()
	doc.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.AttrOr("name", ""))
		if name == "" {
			return
		}
		if _, exists := out.Get(name); exists {
			return
		}
		out.Set(name, s.AttrOr("value", ""))
	})
	return out
}
