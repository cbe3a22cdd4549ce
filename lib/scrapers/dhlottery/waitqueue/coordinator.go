package waitqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// ErrQueueBlocked is returned by operations whose response stayed on the
// holding page. it is transient, the whole operation may be retried later.
var ErrQueueBlocked = errors.New("the site kept the request in its waiting queue, try again later")

type State int

const (
	StateNormal State = iota
	StateWaitDetected
	StateCheckingBot
	StatePollingQueue
	StateReleased
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateWaitDetected:
		return "WAIT_DETECTED"
	case StateCheckingBot:
		return "CHECKING_BOT"
	case StatePollingQueue:
		return "POLLING_QUEUE"
	case StateReleased:
		return "RELEASED"
	case StateBlocked:
		return "BLOCKED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Request describes one outbound call so that it can be replayed.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Form    map[string]string
	Body    any
	Headers map[string]string
	// zero uses the session default
	Timeout time.Duration
}

// Session is the part of the session manager the coordinator drives.
type Session interface {
	Send(ctx context.Context, req Request) (*resty.Response, error)
	Cookie(name string) string
	SetCookie(name, value string)
	UserAgent() string
}

// bot check answers meaning "not a bot"
var clearBotStates = map[string]bool{"F": true, "E": true}

// queue answers meaning the wait is over
var (
	clearWaitStates = map[string]bool{"F": true, "E": true, "NE": true}
	clearWaitCounts = map[string]bool{"0": true, "E": true}
)

const QueueCookie = "wcCookie"

type Options struct {
	// "{domain}" is replaced by the tracer domain of the holding page
	TracerBaseURL string
	// the origin sent to the tracer
	Origin string

	PollAttempts      int
	PollInterval      time.Duration
	RetryDelay        time.Duration
	CheckBotTimeout   time.Duration
	InputQueueTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		TracerBaseURL:     "https://{domain}:48081/TRACERAPI",
		Origin:            "https://www.dhlottery.co.kr",
		PollAttempts:      3,
		PollInterval:      800 * time.Millisecond,
		RetryDelay:        300 * time.Millisecond,
		CheckBotTimeout:   2 * time.Second,
		InputQueueTimeout: 3 * time.Second,
	}
}

// Result is the outcome of one logical request.
type Result struct {
	Response *resty.Response
	// the final state of the bypass, StateNormal when no holding page was seen
	State State
	// whether the original request was sent a second time
	Retried bool
	// number of queue polls made
	Polls int
}

type Coordinator struct {
	session Session
	opts    Options

	rngLock sync.Mutex
	rng     *rand.Rand

	episodes metric.Int64Counter
}

func New(session Session, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.TracerBaseURL == "" {
		opts.TracerBaseURL = defaults.TracerBaseURL
	}
	if opts.Origin == "" {
		opts.Origin = defaults.Origin
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaults.PollAttempts
	}
	if opts.CheckBotTimeout <= 0 {
		opts.CheckBotTimeout = defaults.CheckBotTimeout
	}
	if opts.InputQueueTimeout <= 0 {
		opts.InputQueueTimeout = defaults.InputQueueTimeout
	}

	episodes, _ := meter.Int64Counter(
		"wait_episodes",
		metric.WithDescription("holding page episodes by final state"),
	)
	return &Coordinator{
		session:  session,
		opts:     opts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		episodes: episodes,
	}
}

// Do sends `req` and, if the holding page comes back, tries to clear the
// queue and sends `req` once more. the returned error is only ever the
// transport error of `req` itself.
func (c *Coordinator) Do(ctx context.Context, req Request) (Result, error) {
	res, err := c.session.Send(ctx, req)
	if err != nil {
		return Result{State: StateNormal}, err
	}
	if !IsWaitPage(res) {
		return Result{Response: res, State: StateNormal}, nil
	}

	ctx, span := tracer.Start(ctx, "waitqueue:Do")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.URL))

	slog.WarnContext(ctx, "wait page detected", "url", req.URL)
	state, polls := c.release(ctx, res, req.URL)
	c.episodes.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state.String())))
	span.SetAttributes(
		attribute.String("state", state.String()),
		attribute.Int("polls", polls),
	)
	if state != StateReleased {
		span.SetStatus(codes.Error, "queue bypass blocked")
		return Result{Response: res, State: state, Polls: polls}, nil
	}

	if err := sleep(ctx, c.opts.RetryDelay); err != nil {
		return Result{Response: res, State: StateBlocked, Polls: polls}, nil
	}
	retried, err := c.session.Send(ctx, req)
	if err != nil {
		span.RecordError(err)
		return Result{State: state, Retried: true, Polls: polls}, err
	}
	if IsWaitPage(retried) {
		slog.WarnContext(ctx, "still on wait page after release", "url", req.URL)
	}
	return Result{Response: retried, State: state, Retried: true, Polls: polls}, nil
}

// release runs one wait episode for the holding page `res`.
func (c *Coordinator) release(ctx context.Context, res *resty.Response, requestURL string) (State, int) {
	page, err := url.Parse(requestURL)
	if err != nil {
		return StateBlocked, 0
	}
	waitCtx, ok := ParseContext(res.String(), page)
	if !ok {
		slog.WarnContext(ctx, "wait page has no client ip, cannot bypass", "url", requestURL)
		return StateBlocked, 0
	}
	c.ensureQueueCookie(&waitCtx)

	botState, err := c.checkBot(ctx, waitCtx, requestURL)
	if err != nil {
		slog.DebugContext(ctx, "tracer checkBotIp failed", "err", err)
		return StateBlocked, 0
	}
	slog.DebugContext(ctx, "tracer checkBotIp", "state", botState)
	if botState != "" && !clearBotStates[botState] {
		return StateBlocked, 0
	}

	polls := 0
	for attempt := 1; attempt <= c.opts.PollAttempts; attempt++ {
		polls++
		params, err := c.inputQueue(ctx, waitCtx, requestURL)
		if err != nil {
			slog.DebugContext(ctx, "tracer inputQueue failed", "err", err)
			return StateBlocked, polls
		}

		isWait := params["isWait"]
		waitCount := params["waitCnt"]
		slog.DebugContext(
			ctx, "tracer queue state",
			"attempt", attempt,
			"max_attempts", c.opts.PollAttempts,
			"is_wait", isWait,
			"wait_count", waitCount,
		)
		if clearWaitStates[isWait] || clearWaitCounts[waitCount] {
			return StateReleased, polls
		}
		if attempt < c.opts.PollAttempts {
			if err := sleep(ctx, c.opts.PollInterval); err != nil {
				return StateBlocked, polls
			}
		}
	}
	return StateBlocked, polls
}

// the queue id has to stay the same for every poll of an episode, and is
// reused across episodes once the site (or we) set it.
func (c *Coordinator) ensureQueueCookie(waitCtx *Context) {
	if current := c.session.Cookie(QueueCookie); current != "" {
		waitCtx.LoginID = current
		return
	}
	c.rngLock.Lock()
	cookie := NewQueueCookie(waitCtx.IP, c.rng)
	c.rngLock.Unlock()

	c.session.SetCookie(QueueCookie, cookie)
	waitCtx.LoginID = cookie
}

func (c *Coordinator) tracerURL(domain, endpoint string) string {
	base := strings.ReplaceAll(c.opts.TracerBaseURL, "{domain}", domain)
	return strings.TrimSuffix(base, "/") + "/" + endpoint
}

func (c *Coordinator) tracerHeaders(requestURL string) map[string]string {
	return map[string]string{
		"Origin":  c.opts.Origin,
		"Referer": requestURL,
	}
}

func (c *Coordinator) checkBot(ctx context.Context, waitCtx Context, requestURL string) (string, error) {
	res, err := c.session.Send(ctx, Request{
		Method: "POST",
		URL:    c.tracerURL(waitCtx.TracerDomain, "checkBotIp.do"),
		Form: map[string]string{
			"host":    waitCtx.Host,
			"ip":      waitCtx.IP,
			"port":    waitCtx.Port,
			"pageUrl": waitCtx.PageURL,
		},
		Headers: c.tracerHeaders(requestURL),
		Timeout: c.opts.CheckBotTimeout,
	})
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", nil
	}
	return strings.TrimSpace(res.String()), nil
}

func (c *Coordinator) inputQueue(ctx context.Context, waitCtx Context, requestURL string) (map[string]string, error) {
	res, err := c.session.Send(ctx, Request{
		Method: "POST",
		URL:    c.tracerURL(waitCtx.TracerDomain, "inputQueue.do"),
		Form: map[string]string{
			"host":      waitCtx.Host,
			"ip":        waitCtx.IP,
			"loginId":   waitCtx.LoginID,
			"port":      waitCtx.Port,
			"pageUrl":   waitCtx.PageURL,
			"userAgent": c.session.UserAgent(),
		},
		Headers: c.tracerHeaders(requestURL),
		Timeout: c.opts.InputQueueTimeout,
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		slog.DebugContext(ctx, "tracer inputQueue status", "status", res.StatusCode())
		return map[string]string{}, nil
	}
	return ParseParameters(res.String()), nil
}

// sleep waits for `d` or until ctx is done.
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
