package core

import (
	"context"
	"dhapi/lib/restyutil"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"dhapi/lib/telemetry"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Endpoints are the origins the session talks to, overridable for tests.
type Endpoints struct {
	// the main site, https://www.dhlottery.co.kr
	Base string `json:"base"`
	// the purchase subdomain, https://ol.dhlottery.co.kr
	Game string `json:"game"`
	// "{domain}" is replaced by the tracer domain of a holding page
	TracerBase string `json:"tracer_base"`
	// the domain synthesized cookies are scoped to, empty means host-only
	CookieDomain string `json:"cookie_domain"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Base:         "https://www.dhlottery.co.kr",
		Game:         "https://ol.dhlottery.co.kr",
		TracerBase:   "https://{domain}:48081/TRACERAPI",
		CookieDomain: ".dhlottery.co.kr",
	}
}

type ClientOptions struct {
	Endpoints Endpoints
	UserAgent string
	// per request timeout, defaults to 10 seconds
	Timeout time.Duration
	// 0 uses the default of 5 requests per second, negative disables limiting
	RequestsPerSecond float64
	// the bypass transport rewrites TLS settings, which plain http test
	// servers do not need
	DisableCloudflareBypass bool
	// overrides for the queue bypass, zero fields keep their defaults
	WaitQueue waitqueue.Options
	// every request/response pair is dumped here when set
	InstrumentOutput restyutil.InstrumentOutput
}

// Client owns one dhlottery session. requests may be sent concurrently,
// but login and the purchase and charge flows must run one at a time,
// the site keeps per session state between their steps.
type Client struct {
	endpoints Endpoints
	baseURL   *url.URL
	gameURL   *url.URL
	http      *resty.Client
	jar       http.CookieJar
	userAgent string
	queue     *waitqueue.Coordinator
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	endpoints := opts.Endpoints
	defaults := DefaultEndpoints()
	if endpoints.Base == "" {
		endpoints.Base = defaults.Base
		endpoints.CookieDomain = defaults.CookieDomain
	}
	if endpoints.Game == "" {
		endpoints.Game = defaults.Game
	}
	if endpoints.TracerBase == "" {
		endpoints.TracerBase = defaults.TracerBase
	}

	baseURL, err := url.Parse(strings.TrimSuffix(endpoints.Base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	gameURL, err := url.Parse(strings.TrimSuffix(endpoints.Game, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse game url: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}

	client := resty.New()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if !opts.DisableCloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeaders(map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Cache-Control":   "max-age=0",
	})
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(timeout)

	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = 5
	}
	if rps > 0 {
		// burst >= rps just means that no requests will be dropped
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(rps), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, "dhapi.lib.scrapers.dhlottery.core/http")
	restyutil.InstrumentClient(client, "dhlottery", opts.InstrumentOutput)

	c := &Client{
		endpoints: endpoints,
		baseURL:   baseURL,
		gameURL:   gameURL,
		http:      client,
		jar:       jar,
		userAgent: userAgent,
	}

	queueOpts := opts.WaitQueue
	if queueOpts.TracerBaseURL == "" {
		queueOpts.TracerBaseURL = endpoints.TracerBase
	}
	if queueOpts.Origin == "" {
		queueOpts.Origin = baseURL.String()
	}
	defaultQueue := waitqueue.DefaultOptions()
	if queueOpts.PollInterval == 0 {
		queueOpts.PollInterval = defaultQueue.PollInterval
	}
	if queueOpts.RetryDelay == 0 {
		queueOpts.RetryDelay = defaultQueue.RetryDelay
	}
	c.queue = waitqueue.New(c, queueOpts)

	return c, nil
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// URL resolves `path` against the main site.
func (c *Client) URL(path string) string {
	return resolve(c.baseURL, path)
}

// GameURL resolves `path` against the purchase subdomain.
func (c *Client) GameURL(path string) string {
	return resolve(c.gameURL, path)
}

func resolve(base *url.URL, path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return base.String() + path
	}
	return base.ResolveReference(ref).String()
}

func (c *Client) UserAgent() string {
	return c.userAgent
}

// Cookie returns the value of the cookie `name` sent to the main site.
func (c *Client) Cookie(name string) string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// HasCookie reports whether any origin of the session holds `name`.
func (c *Client) HasCookie(name string) bool {
	for _, u := range []*url.URL{c.baseURL, c.gameURL} {
		for _, cookie := range c.jar.Cookies(u) {
			if cookie.Name == name {
				return true
			}
		}
	}
	return false
}

// SetCookie stores a cookie valid for every subdomain of the site.
func (c *Client) SetCookie(name, value string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:   name,
		Value:  value,
		Domain: c.endpoints.CookieDomain,
		Path:   "/",
	}})
}

type Request = waitqueue.Request

// Request sends `req` through the queue bypass. relative urls resolve
// against the main site. the error is only ever a transport error, the
// response may still be the holding page (see waitqueue.IsWaitPage).
func (c *Client) Request(ctx context.Context, req Request) (*resty.Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	req.URL = c.URL(req.URL)
	result, err := c.queue.Do(ctx, req)
	return result.Response, err
}

// Send performs `req` directly, without the queue bypass.
func (c *Client) Send(ctx context.Context, req Request) (*resty.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Form != nil {
		r.SetFormData(req.Form)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	return r.Execute(req.Method, c.URL(req.URL))
}
