package vaccount

import (
	"bytes"
	"context"
	"dhapi/lib/restyutil"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"dhapi/lib/timezone"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Session is the part of core.Client the resolver needs.
type Session interface {
	Request(ctx context.Context, req core.Request) (*resty.Response, error)
	URL(path string) string
}

// Outcome is the result of one strategy. Record is only meaningful when
// Found is set, Reason only when it is not.
type Outcome struct {
	Record  Record
	Found   bool
	Blocked bool
	Reason  string
}

func found(record Record) Outcome {
	return Outcome{Record: record, Found: true}
}

func notFound(format string, args ...any) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

func blocked(step string) Outcome {
	return Outcome{Blocked: true, Reason: step + " stayed on the waiting page"}
}

type Strategy struct {
	Name string
	Run  func(ctx context.Context, a *Attempt) Outcome
}

// Attempt is the state shared by the strategies of one resolution.
type Attempt struct {
	Deposit Deposit

	resolver *Resolver
	// the charge page as fetched by an earlier strategy
	chargePage *page
}

type page struct {
	url  *url.URL
	body []byte
	doc  *goquery.Document
}

type Options struct {
	// where payloads of failed strategies are written, nil disables it
	Debug restyutil.InstrumentOutput
	// optional cache for discovered scripts
	ScriptCache *badger.DB
	ScriptTTL   time.Duration
	// defaults to DefaultStrategies()
	Strategies []Strategy
	Now        func() time.Time
}

type Resolver struct {
	session    Session
	opts       Options
	strategies []Strategy
	cache      *scriptCache

	outcomes metric.Int64Counter
}

func NewResolver(session Session, opts Options) *Resolver {
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	if opts.ScriptTTL <= 0 {
		opts.ScriptTTL = 6 * time.Hour
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	outcomes, _ := meter.Int64Counter(
		"strategy_outcomes",
		metric.WithDescription("virtual account strategy outcomes"),
	)
	r := &Resolver{
		session:    session,
		opts:       opts,
		strategies: strategies,
		outcomes:   outcomes,
	}
	if opts.ScriptCache != nil {
		r.cache = &scriptCache{db: opts.ScriptCache, ttl: opts.ScriptTTL, now: opts.Now}
	}
	return r
}

// DefaultStrategies are tried in this order, the first valid account wins.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "direct", Run: direct},
		{Name: "charge-page", Run: chargePage},
		{Name: "transactional", Run: transactional},
		{Name: "discovery", Run: discovery},
		{Name: "legacy-kbank", Run: legacyKbank},
	}
}

// Resolve finds the virtual account to send `deposit` to.
func (r *Resolver) Resolve(ctx context.Context, deposit Deposit) (Record, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int64("amount", deposit.amount))

	if deposit.amount <= 0 {
		return Record{}, fmt.Errorf("deposit amount must be positive")
	}

	attempt := &Attempt{Deposit: deposit, resolver: r}
	failed := &ResolutionFailed{}
	for _, strategy := range r.strategies {
		outcome := r.run(ctx, strategy, attempt)
		if outcome.Found {
			if extract.ValidAccount(outcome.Record.AccountNumber) && outcome.Record.AmountText != "" {
				slog.InfoContext(ctx, "virtual account resolved", "strategy", strategy.Name)
				span.SetAttributes(attribute.String("strategy", strategy.Name))
				return outcome.Record, nil
			}
			outcome = notFound("returned an invalid account %q", outcome.Record.AccountNumber)
		}
		slog.WarnContext(
			ctx, "virtual account strategy found nothing",
			"strategy", strategy.Name,
			"reason", outcome.Reason,
			"blocked", outcome.Blocked,
		)
		failed.Attempted = append(failed.Attempted, strategy.Name)
		failed.Reasons = append(failed.Reasons, strategy.Name+": "+outcome.Reason)
		failed.Blocked = failed.Blocked || outcome.Blocked
	}

	span.RecordError(failed)
	span.SetStatus(codes.Error, "no strategy found an account")
	return Record{}, failed
}

// run executes one strategy, a panic is reported as a failed strategy.
func (r *Resolver) run(ctx context.Context, strategy Strategy, a *Attempt) (outcome Outcome) {
	ctx, span := tracer.Start(ctx, "strategy:"+strategy.Name)
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			slog.ErrorContext(
				ctx, "virtual account strategy panicked",
				"strategy", strategy.Name,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			outcome = notFound("panic: %v", recovered)
		}
		result := "not_found"
		switch {
		case outcome.Found:
			result = "found"
		case outcome.Blocked:
			result = "blocked"
		}
		span.SetAttributes(attribute.String("result", result))
		r.outcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", strategy.Name),
			attribute.String("result", result),
		))
	}()

	return strategy.Run(ctx, a)
}

// dump writes `contents` to the debug output, if one is configured.
func (a *Attempt) dump(name string, contents []byte) {
	restyutil.Dump(a.resolver.opts.Debug, name, string(contents))
}

// fetch sends `req` and classifies the response. a non nil Outcome means
// the caller should stop with it.
func (a *Attempt) fetch(ctx context.Context, step string, req core.Request) (*resty.Response, *Outcome) {
	res, err := a.resolver.session.Request(ctx, req)
	if err != nil {
		out := notFound("%s: %v", step, err)
		return nil, &out
	}
	if waitqueue.IsWaitPage(res) {
		a.dump(step+"-wait.html", res.Body())
		out := blocked(step)
		return nil, &out
	}
	if res.StatusCode() != 200 {
		out := notFound("%s: status %d", step, res.StatusCode())
		return nil, &out
	}
	return res, nil
}

// loadChargePage returns the deposit charge page, fetching it once per
// attempt.
func (a *Attempt) loadChargePage(ctx context.Context) (*page, *Outcome) {
	if a.chargePage != nil {
		return a.chargePage, nil
	}
	session := a.resolver.session
	res, out := a.fetch(ctx, "charge page", core.Request{
		URL:     chargePagePath,
		Headers: map[string]string{"Referer": session.URL(homePagePath)},
	})
	if out != nil {
		return nil, out
	}

	pageURL, err := url.Parse(core.FinalURL(res))
	if err != nil || pageURL.Host == "" {
		pageURL, _ = url.Parse(session.URL(chargePagePath))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		o := notFound("charge page: %v", err)
		return nil, &o
	}
	a.chargePage = &page{url: pageURL, body: res.Body(), doc: doc}
	return a.chargePage, nil
}
