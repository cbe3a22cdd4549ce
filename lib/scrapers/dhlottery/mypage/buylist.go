package mypage

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/timezone"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultRange = 14 * 24 * time.Hour

type Entry struct {
	PurchaseDate string `json:"purchase_date"`
	LotteryName  string `json:"lottery_name"`
	Round        string `json:"round"`
	// chosen numbers, or the ticket number for non 6/45 products
	Numbers   string `json:"numbers"`
	Quantity  int64  `json:"quantity"`
	WinResult string `json:"win_result"`
	WinAmount int64  `json:"win_amount"`
	DrawDate  string `json:"draw_date"`
}

type BuyList struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Entries []Entry   `json:"entries"`
}

// BuyList returns purchases between `start` and `end` inclusive. zero
// values default to the last 14 days.
func (c *Client) BuyList(ctx context.Context, start, end time.Time) (BuyList, error) {
	ctx, span := tracer.Start(ctx, "BuyList")
	defer span.End()

	list, err := c.buyList(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "buy list")
		return BuyList{}, fmt.Errorf("%w: %w", ErrBuyListUnavailable, err)
	}
	span.SetAttributes(attribute.Int("entries", len(list.Entries)))
	return list, nil
}

func (c *Client) buyList(ctx context.Context, start, end time.Time) (BuyList, error) {
	now := c.Now()
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-defaultRange)
	}
	start = timezone.Date(start)
	end = timezone.Date(end)
	if end.Before(start) {
		return BuyList{}, fmt.Errorf("end date %s is before start date %s", end.Format(timezone.DashLayout), start.Format(timezone.DashLayout))
	}

	// the ledger endpoint refuses callers that never opened the page
	_, err := c.session.Request(ctx, core.Request{URL: LedgerPage})
	if err != nil {
		return BuyList{}, err
	}

	query := url.Values{}
	query.Set("srchStrDt", start.Format(timezone.CompactLayout))
	query.Set("srchEndDt", end.Format(timezone.CompactLayout))
	query.Set("pageNum", "1")
	query.Set("recordCountPerPage", "100")
	query.Set("_", strconv.FormatInt(now.UnixMilli(), 10))

	data, err := c.getJSON(ctx, core.Request{
		URL:     LedgerPath,
		Query:   query,
		Headers: core.AjaxHeaders(c.session.URL(LedgerPage), ""),
	})
	if err != nil {
		return BuyList{}, err
	}

	items, _ := object(data["data"])["list"].([]any)
	list := BuyList{Start: start, End: end, Entries: make([]Entry, 0, len(items))}
	for _, raw := range items {
		item := object(raw)
		if item == nil {
			continue
		}
		entry := Entry{
			PurchaseDate: text(item["eltOrdrDt"]),
			LotteryName:  text(item["ltGdsNm"]),
			Round:        text(item["ltEpsdView"]),
			Numbers:      text(item["gmInfo"]),
			Quantity:     number(item["prchsQty"]),
			WinResult:    text(item["ltWnResult"]),
			WinAmount:    number(item["ltWnAmt"]),
			DrawDate:     text(item["epsdRflDt"]),
		}
		orderNumber := text(item["ntslOrdrNo"])
		if entry.Numbers != "" && entry.LotteryName == lottoGoodsName && orderNumber != "" {
			entry.Numbers = c.ticketDetail(ctx, orderNumber, entry.Numbers, entry.PurchaseDate)
			err = sleep(ctx, c.DetailDelay)
			if err != nil {
				return BuyList{}, err
			}
		}
		list.Entries = append(list.Entries, entry)
	}
	return list, nil
}

var gameTypes = map[int64]string{1: "수동", 2: "반자동", 3: "자동"}

// ticketDetail renders the numbers of one 6/45 ticket. failures are
// rendered in place, the rest of the list is still useful.
func (c *Client) ticketDetail(ctx context.Context, orderNumber, barcode, purchaseDate string) string {
	purchased, err := time.ParseInLocation(timezone.DashLayout, purchaseDate, timezone.Location)
	if err != nil {
		slog.WarnContext(ctx, "ticket detail: bad purchase date", "date", purchaseDate, "err", err)
		return "조회 실패"
	}
	query := url.Values{}
	query.Set("ntslOrdrNo", orderNumber)
	query.Set("srchStrDt", purchased.AddDate(0, 0, -7).Format(timezone.CompactLayout))
	query.Set("srchEndDt", purchased.AddDate(0, 0, 7).Format(timezone.CompactLayout))
	query.Set("barcd", barcode)

	data, err := c.getJSON(ctx, core.Request{URL: TicketDetail, Query: query})
	if err != nil {
		slog.WarnContext(ctx, "ticket detail lookup failed", "order", orderNumber, "err", err)
		return "조회 실패"
	}
	detail := object(data["data"])
	if success, _ := detail["success"].(bool); !success {
		return "조회 실패"
	}
	games, _ := object(detail["ticket"])["game_dtl"].([]any)
	if len(games) == 0 {
		return "번호 정보 없음"
	}

	var lines []string
	for _, raw := range games {
		game := object(raw)
		numbers, _ := game["num"].([]any)
		if len(numbers) == 0 {
			continue
		}
		gameType, ok := gameTypes[number(game["type"])]
		if !ok {
			gameType = "자동"
		}
		parts := make([]string, len(numbers))
		for i, n := range numbers {
			parts[i] = text(n)
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", text(game["idx"]), gameType, strings.Join(parts, " ")))
	}
	if len(lines) == 0 {
		return "번호 확인 불가"
	}
	return strings.Join(lines, "\n")
}
