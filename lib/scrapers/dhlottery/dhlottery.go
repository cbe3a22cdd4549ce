// Package dhlottery ties the session, purchase, my page and virtual
// account pieces into one client per user.
package dhlottery

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/mypage"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"dhapi/lib/telemetry"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery")

// Sink receives the result of every successful operation.
type Sink interface {
	ReportPurchase(ctx context.Context, result lotto645.PurchaseResult) error
	ReportBalance(ctx context.Context, balance mypage.Balance) error
	ReportBuyList(ctx context.Context, list mypage.BuyList) error
	ReportVirtualAccount(ctx context.Context, record vaccount.Record) error
}

type Options struct {
	Session  core.ClientOptions
	Resolver vaccount.Options
}

type Client struct {
	session  *core.Client
	buyer    *lotto645.Buyer
	mypage   *mypage.Client
	resolver *vaccount.Resolver
	sink     Sink
}

// New creates a client that is not logged in yet. `sink` may be nil.
func New(ctx context.Context, opts Options, sink Sink) (*Client, error) {
	session, err := core.NewClient(ctx, opts.Session)
	if err != nil {
		return nil, err
	}
	return &Client{
		session:  session,
		buyer:    lotto645.NewBuyer(session),
		mypage:   mypage.NewClient(session),
		resolver: vaccount.NewResolver(session, opts.Resolver),
		sink:     sink,
	}, nil
}

func (c *Client) Session() *core.Client {
	return c.session
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.session.Login(ctx, username, password)
}

func report[T any](ctx context.Context, value T, err error, send func(context.Context, T) error) (T, error) {
	if err != nil {
		return value, err
	}
	err = send(ctx, value)
	if err != nil {
		return value, err
	}
	return value, nil
}

func (c *Client) BuyLotto645(ctx context.Context, tickets []lotto645.Ticket) (lotto645.PurchaseResult, error) {
	ctx, span := tracer.Start(ctx, "BuyLotto645")
	defer span.End()

	result, err := c.buyer.Purchase(ctx, tickets)
	if c.sink != nil {
		result, err = report(ctx, result, err, c.sink.ReportPurchase)
	}
	recordSpanError(span, err)
	return result, err
}

func (c *Client) ShowBalance(ctx context.Context) (mypage.Balance, error) {
	ctx, span := tracer.Start(ctx, "ShowBalance")
	defer span.End()

	balance, err := c.mypage.Balance(ctx)
	if c.sink != nil {
		balance, err = report(ctx, balance, err, c.sink.ReportBalance)
	}
	recordSpanError(span, err)
	return balance, err
}

// ShowBuyList reports purchases between `start` and `end`, zero values
// default to the last two weeks.
func (c *Client) ShowBuyList(ctx context.Context, start, end time.Time) (mypage.BuyList, error) {
	ctx, span := tracer.Start(ctx, "ShowBuyList")
	defer span.End()

	list, err := c.mypage.BuyList(ctx, start, end)
	if c.sink != nil {
		list, err = report(ctx, list, err, c.sink.ReportBuyList)
	}
	recordSpanError(span, err)
	return list, err
}

func (c *Client) WeeklyUsage(ctx context.Context) (mypage.WeeklyUsage, error) {
	return c.mypage.WeeklyUsage(ctx)
}

func (c *Client) AssignVirtualAccount(ctx context.Context, amount int64) (vaccount.Record, error) {
	ctx, span := tracer.Start(ctx, "AssignVirtualAccount")
	defer span.End()

	deposit, err := vaccount.NewDeposit(amount)
	if err != nil {
		recordSpanError(span, err)
		return vaccount.Record{}, err
	}
	record, err := c.resolver.Resolve(ctx, deposit)
	if c.sink != nil {
		record, err = report(ctx, record, err, c.sink.ReportVirtualAccount)
	}
	recordSpanError(span, err)
	return record, err
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// IsTransient reports whether `err` may go away when the operation is
// retried later, currently that only means the site's waiting queue.
func IsTransient(err error) bool {
	return errors.Is(err, waitqueue.ErrQueueBlocked)
}
