package printer

import (
	"bytes"
	"context"
	"dhapi/lib/numberstore"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/mypage"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{in: "", want: FormatTable, ok: true},
		{in: "table", want: FormatTable, ok: true},
		{in: "JSON", want: FormatJSON, ok: true},
		{in: "yaml"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTableOutput(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	p := New(buf, FormatTable)

	err := p.ReportBalance(ctx, mypage.Balance{Total: 15000, Available: 12000})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "15,000원")
	require.Contains(t, buf.String(), "12,000원")
	require.Contains(t, buf.String(), "╭")

	buf.Reset()
	err = p.ReportPurchase(ctx, lotto645.PurchaseResult{
		Round:    1150,
		DrawDate: time.Date(2024, 12, 14, 0, 0, 0, 0, time.UTC),
		Amount:   2000,
		Slots: []lotto645.Slot{
			{Slot: "A", Mode: "자동", Numbers: []string{"01", "02", "04", "27", "39", "44"}},
		},
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "1150")
	require.Contains(t, buf.String(), "2024-12-14")
	require.Contains(t, buf.String(), "01 02 04 27 39 44")

	buf.Reset()
	err = p.ReportBuyList(ctx, mypage.BuyList{})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "구매 내역이 없습니다.")
}

func TestJSONOutput(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	p := New(buf, FormatJSON)

	err := p.ReportVirtualAccount(ctx, vaccount.Record{
		AccountNumber: "123-456-789012",
		AmountText:    "15,000원",
		BankName:      "케이뱅크",
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "123-456-789012", out["account"])
	require.Equal(t, "15,000원", out["amount"])
	require.NotContains(t, out, "account_holder")

	buf.Reset()
	err = p.PrintNumbers(nil)
	require.NoError(t, err)
	var entries []numberstore.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.NotNil(t, entries)
	require.Len(t, entries, 0)
}
