package extract

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFromHTML(t *testing.T) {
	testCases := []struct {
		name   string
		html   string
		expect Fields
	}{
		{
			name: "charge page markup",
			html: `<html><body><div id="contents">
				<p>고객님의 전용 가상계좌</p>
				<span>7979-12-3456789</span>
				<strong class="color_key1">50,000원</strong>
				<p>문의: 1588-6450</p>
			</div></body></html>`,
			expect: Fields{
				Account: "7979-12-3456789",
				Amount:  "50,000원",
			},
		},
		{
			name: "labelled prose",
			html: `<html><body>
				<p>고객센터 02-1234-5678</p>
				<dl><dt>고정 가상계좌</dt><dd>[케이뱅크] 123-4567-890-1234</dd></dl>
				<p>예금주 : 동행복권 </p>
				<p>충전금액 10,000 원</p>
			</body></html>`,
			expect: Fields{
				Account: "123-4567-890-1234",
				Amount:  "10,000원",
				Bank:    "케이뱅크",
				Holder:  "동행복권",
			},
		},
		{
			name: "bank then account",
			html: `<html><body><p>입금 안내 신한은행 110-123-456789 로 입금해주세요</p></body></html>`,
			expect: Fields{
				Account: "110-123-456789",
				Bank:    "신한은행",
			},
		},
		{
			name: "only in markup attributes",
			html: `<html><body><div data-info="케이뱅크 계좌 100-2000-300-4000"></div></body></html>`,
			expect: Fields{
				Account: "100-2000-300-4000",
			},
		},
		{
			name:   "phone numbers are not accounts",
			html:   `<html><body><p>계좌번호 : 010-1234-5678</p><p>ARS 1588-6450</p></body></html>`,
			expect: Fields{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := FromHTML([]byte(test.html))
			if diff := cmp.Diff(test.expect, got); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHiddenInputs(t *testing.T) {
	raw := []byte(`<form>
		<input type="hidden" name="VbankNum" value="123-4567-890-1234">
		<input type="hidden" name="Amt" value="20000">
		<input type="hidden" name="VbankNum" value="ignored">
		<input type="text" value="no name">
	</form>`)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	require.NoError(t, err)

	inputs := HiddenInputs(doc)
	require.Equal(t, []string{"VbankNum", "Amt"}, inputs.Keys)
	require.Equal(t, "123-4567-890-1234", inputs.String("VbankNum"))

	fields := FromPayload(inputs)
	require.Equal(t, "123-4567-890-1234", fields.Account)
	require.Equal(t, "20,000원", fields.Amount)
	require.Equal(t, DefaultBank.Name, fields.Bank)
}
