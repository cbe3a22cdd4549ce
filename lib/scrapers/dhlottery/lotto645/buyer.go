package lotto645

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"dhapi/lib/timezone"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	ReadySocketPath = "/olotto/game/egovUserReadySocket.json"
	ExecBuyPath     = "/olotto/game/execBuy.do"

	successCode = "100"
)

// PurchaseError is a purchase the site refused or answered with
// something unreadable.
type PurchaseError struct {
	Reason string
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("로또6/45 구매에 실패했습니다. (사유: %s)", e.Reason)
}

const unknownReason = "알 수 없는 오류"

// Session is the part of core.Client the buyer needs.
type Session interface {
	Request(ctx context.Context, req core.Request) (*resty.Response, error)
	GameURL(path string) string
}

type Buyer struct {
	session Session
	// overridable in tests
	Now func() time.Time

	purchases metric.Int64Counter
}

func NewBuyer(session Session) *Buyer {
	purchases, _ := meter.Int64Counter(
		"purchases",
		metric.WithDescription("lotto645 purchase attempts by result"),
	)
	return &Buyer{
		session:   session,
		Now:       timezone.Now,
		purchases: purchases,
	}
}

type PurchaseResult struct {
	Round        int       `json:"round"`
	DrawDate     time.Time `json:"draw_date"`
	PayLimitDate time.Time `json:"pay_limit_date"`
	Amount       int       `json:"amount"`
	Slots        []Slot    `json:"slots"`
}

type slotParam struct {
	GenType          string  `json:"genType"`
	ArrGameChoiceNum *string `json:"arrGameChoiceNum"`
	Alpabet          string  `json:"alpabet"`
}

// BuildParam encodes `tickets` the way the purchase form expects them,
// the "alpabet" key is spelled as the site spells it.
func BuildParam(tickets []Ticket) (string, error) {
	params := make([]slotParam, len(tickets))
	for i, t := range tickets {
		param := slotParam{
			GenType: t.mode.genType(),
			Alpabet: string(rune('A' + i)),
		}
		if t.mode != ModeAuto {
			numbers := joinNumbers(t.numbers)
			param.ArrGameChoiceNum = &numbers
		}
		params[i] = param
	}
	out, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type readySocketResponse struct {
	ReadyIP string `json:"ready_ip"`
}

type execBuyResponse struct {
	Result struct {
		ResultCode       string   `json:"resultCode"`
		ResultMsg        string   `json:"resultMsg"`
		ArrGameChoiceNum []string `json:"arrGameChoiceNum"`
	} `json:"result"`
}

// Purchase buys 1 to 5 tickets for the upcoming draw.
func (b *Buyer) Purchase(ctx context.Context, tickets []Ticket) (PurchaseResult, error) {
	ctx, span := tracer.Start(ctx, "Purchase")
	defer span.End()
	span.SetAttributes(attribute.Int("tickets", len(tickets)))

	result, err := b.purchase(ctx, tickets)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, "purchase failed")
	}
	b.purchases.Add(ctx, 1, metric.WithAttributes(attribute.String("result", outcome)))
	return result, err
}

func (b *Buyer) purchase(ctx context.Context, tickets []Ticket) (PurchaseResult, error) {
	if len(tickets) < 1 || len(tickets) > MaxTickets {
		return PurchaseResult{}, &PurchaseError{
			Reason: fmt.Sprintf("한 번에 1~%d장까지 구매할 수 있습니다 (got %d)", MaxTickets, len(tickets)),
		}
	}

	gamePage := b.session.GameURL(core.Game645Page)
	headers := map[string]string{
		"Referer": gamePage,
		"Origin":  b.session.GameURL("/"),
	}

	res, err := b.session.Request(ctx, core.Request{
		Method:  http.MethodPost,
		URL:     b.session.GameURL(ReadySocketPath),
		Headers: headers,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("ready socket: %w", err)
	}
	if waitqueue.IsWaitPage(res) {
		return PurchaseResult{}, fmt.Errorf("ready socket: %w", waitqueue.ErrQueueBlocked)
	}
	var ready readySocketResponse
	err = core.DecodeJSON(res, &ready)
	if err != nil {
		slog.WarnContext(ctx, "ready socket response is not json", "err", err)
		return PurchaseResult{}, &PurchaseError{Reason: unknownReason}
	}

	param, err := BuildParam(tickets)
	if err != nil {
		return PurchaseResult{}, err
	}

	now := b.Now()
	result := PurchaseResult{
		Round:        Round(now),
		DrawDate:     DrawDate(now),
		PayLimitDate: PayLimitDate(now),
		Amount:       TicketPrice * len(tickets),
	}
	form := map[string]string{
		"round":                strconv.Itoa(result.Round),
		"direct":               ready.ReadyIP,
		"nBuyAmount":           strconv.Itoa(result.Amount),
		"param":                param,
		"ROUND_DRAW_DATE":      result.DrawDate.Format(timezone.SlashLayout),
		"WAMT_PAY_TLMT_END_DT": result.PayLimitDate.Format(timezone.SlashLayout),
		"gameCnt":              strconv.Itoa(len(tickets)),
		"saleMdaDcd":           "10",
	}
	slog.DebugContext(ctx, "purchase form", "round", result.Round, "param", param)

	res, err = b.session.Request(ctx, core.Request{
		Method:  http.MethodPost,
		URL:     b.session.GameURL(ExecBuyPath),
		Form:    form,
		Headers: headers,
	})
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("exec buy: %w", err)
	}
	if waitqueue.IsWaitPage(res) {
		return PurchaseResult{}, fmt.Errorf("exec buy: %w", waitqueue.ErrQueueBlocked)
	}

	var buyRes execBuyResponse
	err = core.DecodeJSON(res, &buyRes)
	if err != nil {
		slog.WarnContext(ctx, "purchase response is not json", "err", err)
		return PurchaseResult{}, &PurchaseError{Reason: unknownReason}
	}
	if buyRes.Result.ResultCode != successCode {
		reason := buyRes.Result.ResultMsg
		if reason == "" {
			reason = unknownReason
		}
		return PurchaseResult{}, &PurchaseError{Reason: reason}
	}

	// the purchase went through at this point, a slot we cannot read must
	// not turn it into a failure
	result.Slots, err = ParseSlots(buyRes.Result.ArrGameChoiceNum)
	if err != nil {
		slog.WarnContext(ctx, "could not parse purchased slots", "err", err)
	}
	return result, nil
}
