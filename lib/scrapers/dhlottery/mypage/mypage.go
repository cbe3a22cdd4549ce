package mypage

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"dhapi/lib/telemetry"
	"dhapi/lib/timezone"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
)

var tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery.mypage")

var (
	ErrBalanceUnavailable = errors.New("예치금 현황을 조회하지 못했습니다.")
	ErrBuyListUnavailable = errors.New("구매 내역을 조회하지 못했습니다.")
)

const (
	HomePage       = "/mypage/home"
	UserMndpPath   = "/mypage/selectUserMndp.do"
	HomeInfoPath   = "/mypage/selectMyHomeInfo.do"
	LedgerPage     = "/mypage/mylotteryledger"
	LedgerPath     = "/mypage/selectMyLotteryledger.do"
	TicketDetail   = "/mypage/lotto645TicketDetail.do"
	ChargePage     = "/mypage/mndpChrg"
	lottoGoodsName = "로또6/45"
)

// Session is the part of core.Client mypage needs.
type Session interface {
	Request(ctx context.Context, req core.Request) (*resty.Response, error)
	URL(path string) string
}

type Client struct {
	session Session
	// pause between ticket detail lookups
	DetailDelay time.Duration
	Now         func() time.Time
}

func NewClient(session Session) *Client {
	return &Client{
		session:     session,
		DetailDelay: 500 * time.Millisecond,
		Now:         timezone.Now,
	}
}

// getJSON fetches `path` as an ajax call and decodes the body into a
// generic map.
func (c *Client) getJSON(ctx context.Context, req core.Request) (map[string]any, error) {
	res, err := c.session.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if waitqueue.IsWaitPage(res) {
		return nil, waitqueue.ErrQueueBlocked
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	if !core.IsJSON(res) {
		return nil, fmt.Errorf("response is not json (%s), the session may have expired", res.Header().Get("Content-Type"))
	}
	var out map[string]any
	err = core.DecodeJSON(res, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// number reads an integer out of a decoded json value. missing, null
// and unparsable values read as 0.
func number(v any) int64 {
	switch value := v.(type) {
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n
		}
		if f, err := value.Float64(); err == nil {
			return int64(math.Round(f))
		}
	case float64:
		return int64(math.Round(value))
	case string:
		if parsed, err := json.Number(value).Int64(); err == nil {
			return parsed
		}
	}
	return 0
}

func text(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	}
	return fmt.Sprint(v)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
