// Package printer renders operation results to a terminal, either as
// go-pretty tables or as indented json.
package printer

import (
	"context"
	"dhapi/lib/numberstore"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/mypage"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (table, json)", s)
}

const dateLayout = "2006-01-02"

type Printer struct {
	out    io.Writer
	format Format
}

func New(out io.Writer, format Format) Printer {
	return Printer{out: out, format: format}
}

func (p Printer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(p.out)
	if title != "" {
		t.SetTitle("%s", title)
	}
	return t
}

func (p Printer) json(value any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}

func won(amount int64) string {
	return extract.FormatWon(amount)
}

func (p Printer) ReportPurchase(_ context.Context, result lotto645.PurchaseResult) error {
	if p.format == FormatJSON {
		return p.json(result)
	}

	t := p.newTable("로또6/45 구매 완료")
	t.AppendRows([]table.Row{
		{"회차", result.Round},
		{"추첨일", result.DrawDate.Format(dateLayout)},
		{"지급 기한", result.PayLimitDate.Format(dateLayout)},
		{"금액", won(int64(result.Amount))},
	})
	t.Render()

	slots := p.newTable("")
	slots.AppendHeader(table.Row{"슬롯", "선택", "번호"})
	for _, slot := range result.Slots {
		slots.AppendRow(table.Row{slot.Slot, slot.Mode, strings.Join(slot.Numbers, " ")})
	}
	slots.Render()
	return nil
}

func (p Printer) ReportBalance(_ context.Context, balance mypage.Balance) error {
	if p.format == FormatJSON {
		return p.json(balance)
	}

	t := p.newTable("예치금 현황")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.AppendRows([]table.Row{
		{"총예치금", won(balance.Total)},
		{"구매가능금액", won(balance.Available)},
		{"예약구매금액", won(balance.Reserved)},
		{"출금신청중금액", won(balance.WithdrawRequested)},
		{"구매불가능금액", won(balance.Unavailable)},
		{"최근 1달 구매금액", won(balance.MonthlyPurchased)},
	})
	t.Render()
	return nil
}

func (p Printer) ReportBuyList(_ context.Context, list mypage.BuyList) error {
	if p.format == FormatJSON {
		return p.json(list)
	}

	t := p.newTable(fmt.Sprintf(
		"구매 내역 (%s ~ %s)",
		list.Start.Format(dateLayout),
		list.End.Format(dateLayout),
	))
	t.AppendHeader(table.Row{"구입일자", "복권명", "회차", "선택번호", "구입매수", "당첨결과", "당첨금", "추첨일"})
	for _, entry := range list.Entries {
		t.AppendRow(table.Row{
			entry.PurchaseDate,
			entry.LotteryName,
			entry.Round,
			entry.Numbers,
			entry.Quantity,
			entry.WinResult,
			won(entry.WinAmount),
			entry.DrawDate,
		})
	}
	if len(list.Entries) == 0 {
		t.AppendRow(table.Row{"구매 내역이 없습니다."})
	}
	t.Render()
	return nil
}

func (p Printer) ReportVirtualAccount(_ context.Context, record vaccount.Record) error {
	if p.format == FormatJSON {
		return p.json(record)
	}

	t := p.newTable("가상계좌 입금 안내")
	t.AppendRows([]table.Row{
		{"은행", record.BankName},
		{"계좌번호", record.AccountNumber},
		{"예금주", record.AccountHolder},
		{"입금 금액", record.AmountText},
	})
	t.Render()
	return nil
}

func (p Printer) PrintWeeklyUsage(usage mypage.WeeklyUsage) error {
	if p.format == FormatJSON {
		return p.json(usage)
	}

	t := p.newTable(fmt.Sprintf(
		"주간 구매 한도 (%s ~ %s)",
		usage.WeekStart.Format(dateLayout),
		usage.WeekEnd.Format(dateLayout),
	))
	t.AppendRows([]table.Row{
		{"한도", won(usage.Limit)},
		{"구매", won(usage.Purchased)},
		{"잔여", won(usage.Remaining)},
	})
	t.Render()
	return nil
}

func (p Printer) PrintNumbers(entries []numberstore.Entry) error {
	if p.format == FormatJSON {
		if entries == nil {
			entries = []numberstore.Entry{}
		}
		return p.json(entries)
	}

	t := p.newTable("저장한 번호")
	t.AppendHeader(table.Row{"ID", "이름", "번호", "저장일"})
	for _, entry := range entries {
		numbers := make([]string, len(entry.Numbers))
		for i, n := range entry.Numbers {
			numbers[i] = fmt.Sprintf("%02d", n)
		}
		t.AppendRow(table.Row{
			entry.ID,
			entry.Name,
			strings.Join(numbers, " "),
			entry.CreatedAt.Format(dateLayout),
		})
	}
	t.Render()
	return nil
}
