package vaccount

import (
	"context"
	"dhapi/lib/htmlutil"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"
)

const (
	maxScripts        = 18
	maxTriedEndpoints = 12
	scriptConcurrency = 4
	minEndpointScore  = 3
)

var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ajaxUtil\.sendHttpJson\([^,]+,\s*['"]([^'"]+\.do(?:\?method=[A-Za-z0-9_]+)?)`),
	regexp.MustCompile(`['"](/mypage/[A-Za-z0-9_/\-]+\.do(?:\?method=[A-Za-z0-9_]+)?)['"]`),
	regexp.MustCompile(`['"](/kbank\.do\?method=[A-Za-z0-9_]+)['"]`),
}

// tokens that make an endpoint likely to know about the account
var (
	accountTokens = []string{"mndp", "chrg", "kbank", "vbank", "account", "actno", "vact", "dpst", "charge"}
	readTokens    = []string{"select", "get", "search"}
)

// endpoints that exist on some versions of the site but are not always
// referenced from its scripts
var guessedPaths = []string{
	"/mypage/selectMndpChrg.do",
	"/mypage/selectMndpChrgInfo.do",
	"/mypage/selectMndpChrgList.do",
	"/mypage/selectMndpChrgHist.do",
	"/mypage/selectMndpChrgDetail.do",
	"/mypage/selectMndpVbankInfo.do",
	"/mypage/selectVbankInfo.do",
	"/mypage/selectFixVactInfo.do",
	"/mypage/selectFxVrAccount.do",
}

func scoreEndpoint(endpoint string) int {
	lower := strings.ToLower(endpoint)
	score := 0
	for _, token := range accountTokens {
		if strings.Contains(lower, token) {
			score += 3
		}
	}
	for _, token := range readTokens {
		if strings.Contains(lower, token) {
			score += 2
		}
	}
	return score
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// RankEndpoints extracts endpoint paths from `texts` and returns the
// account related ones, best first, resolved against `base`.
func RankEndpoints(base *url.URL, texts ...string) []string {
	seen := map[string]bool{}
	var ranked []string
	for _, text := range texts {
		for _, pattern := range endpointPatterns {
			for _, m := range pattern.FindAllStringSubmatch(text, -1) {
				ref, err := base.Parse(m[1])
				if err != nil {
					continue
				}
				endpoint := ref.String()
				if seen[endpoint] {
					continue
				}
				seen[endpoint] = true

				lower := strings.ToLower(endpoint)
				if !strings.Contains(lower, "/mypage/") || !containsAny(lower, readTokens) {
					continue
				}
				if scoreEndpoint(endpoint) < minEndpointScore {
					continue
				}
				ranked = append(ranked, endpoint)
			}
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scoreEndpoint(ranked[i]), scoreEndpoint(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

func sameSite(a, b *url.URL) bool {
	siteA, err := publicsuffix.EffectiveTLDPlusOne(a.Hostname())
	if err != nil {
		return a.Hostname() == b.Hostname()
	}
	siteB, err := publicsuffix.EffectiveTLDPlusOne(b.Hostname())
	if err != nil {
		return false
	}
	return siteA == siteB
}

func isScript(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), ".js")
}

// scriptURLs returns the distinct same site scripts of the page.
func scriptURLs(ctx context.Context, p *page) []*url.URL {
	seen := map[string]bool{}
	var out []*url.URL
	for _, src := range htmlutil.ScriptSources(ctx, p.doc, p.url) {
		if !isScript(src) || !sameSite(src, p.url) {
			continue
		}
		key := normalizeURL(src)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, src)
		if len(out) >= maxScripts {
			break
		}
	}
	return out
}

func (a *Attempt) fetchScript(ctx context.Context, src *url.URL) (string, error) {
	cache := a.resolver.cache
	if cache != nil {
		contents, err := cache.get(ctx, src)
		if err == nil {
			return string(contents), nil
		}
		if !errors.Is(err, errScriptNotCached) {
			slog.WarnContext(ctx, "script cache read failed", "url", src.String(), "err", err)
		}
	}

	res, err := a.resolver.session.Request(ctx, core.Request{URL: src.String()})
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 || len(res.Body()) == 0 || waitqueue.IsWaitPage(res) {
		return "", nil
	}
	if cache != nil {
		err = cache.set(ctx, src, res.Body())
		if err != nil {
			slog.WarnContext(ctx, "script cache write failed", "url", src.String(), "err", err)
		}
	}
	return res.String(), nil
}

// fetchScripts downloads `urls` with bounded concurrency. failed scripts
// are left out.
func (a *Attempt) fetchScripts(ctx context.Context, urls []*url.URL) []string {
	texts := make([]string, len(urls))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scriptConcurrency)
	for i, src := range urls {
		group.Go(func() error {
			text, err := a.fetchScript(groupCtx, src)
			if err != nil {
				slog.DebugContext(groupCtx, "script fetch failed", "url", src.String(), "err", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = group.Wait()

	out := texts[:0]
	for _, text := range texts {
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

type endpointCall struct {
	name string
	req  func(endpoint string, headers map[string]string, timestamp string) core.Request
}

var endpointCalls = []endpointCall{
	{
		name: "GET",
		req: func(endpoint string, headers map[string]string, timestamp string) core.Request {
			return core.Request{
				Method:  http.MethodGet,
				URL:     endpoint,
				Query:   url.Values{"_": []string{timestamp}},
				Headers: headers,
			}
		},
	},
	{
		name: "POST_JSON",
		req: func(endpoint string, headers map[string]string, _ string) core.Request {
			jsonHeaders := map[string]string{"Content-Type": "application/json;charset=UTF-8"}
			for k, v := range headers {
				jsonHeaders[k] = v
			}
			return core.Request{Method: http.MethodPost, URL: endpoint, Body: "{}", Headers: jsonHeaders}
		},
	},
	{
		name: "POST_FORM",
		req: func(endpoint string, headers map[string]string, _ string) core.Request {
			return core.Request{Method: http.MethodPost, URL: endpoint, Form: map[string]string{}, Headers: headers}
		},
	},
}

// recordFromResponse runs the extractor matching the response type.
func recordFromResponse(res *resty.Response, deposit Deposit) (Record, bool) {
	switch {
	case core.IsJSON(res):
		payload, err := extract.Decode(res.Body())
		if err != nil {
			return Record{}, false
		}
		return newRecord(extract.FromPayload(payload), deposit)
	case core.IsHTML(res):
		return newRecord(extract.FromHTML(res.Body()), deposit)
	}
	return Record{}, false
}

// discovery looks through the charge page and its scripts for other
// endpoints that might know the account, and calls the best of them.
func discovery(ctx context.Context, a *Attempt) Outcome {
	p, out := a.loadChargePage(ctx)
	if out != nil {
		return *out
	}
	session := a.resolver.session

	scripts := scriptURLs(ctx, p)
	texts := a.fetchScripts(ctx, scripts)
	base, err := url.Parse(session.URL("/"))
	if err != nil {
		return notFound("discovery: %v", err)
	}
	endpoints := RankEndpoints(base, append([]string{string(p.body)}, texts...)...)
	discovered := len(endpoints)
	for _, path := range guessedPaths {
		endpoint := session.URL(path)
		if !slices.Contains(endpoints, endpoint) {
			endpoints = append(endpoints, endpoint)
		}
	}
	slog.WarnContext(
		ctx, "charge page endpoint discovery",
		"scripts", len(scripts),
		"fetched", len(texts),
		"discovered", discovered,
		"endpoints", len(endpoints),
	)
	if len(endpoints) > maxTriedEndpoints {
		endpoints = endpoints[:maxTriedEndpoints]
	}

	headers := core.AjaxHeaders(p.url.String(), p.url.Path)
	timestamp := strconv.FormatInt(a.resolver.opts.Now().UnixMilli(), 10)
	wasBlocked := false
	for _, endpoint := range endpoints {
		for _, call := range endpointCalls {
			res, err := session.Request(ctx, call.req(endpoint, headers, timestamp))
			if err != nil {
				if ctx.Err() != nil {
					return notFound("discovery: %v", ctx.Err())
				}
				slog.DebugContext(ctx, "endpoint call failed", "endpoint", endpoint, "method", call.name, "err", err)
				continue
			}
			if waitqueue.IsWaitPage(res) {
				wasBlocked = true
				continue
			}
			if res.StatusCode() != 200 {
				continue
			}
			if record, ok := recordFromResponse(res, a.Deposit); ok {
				slog.InfoContext(ctx, "virtual account found from discovered endpoint", "endpoint", endpoint, "method", call.name)
				return found(record)
			}
		}
	}
	return Outcome{
		Blocked: wasBlocked,
		Reason:  "discovery: no tried endpoint returned an account",
	}
}
