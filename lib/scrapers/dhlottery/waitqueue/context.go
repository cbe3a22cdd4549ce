package waitqueue

import (
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
)

// WaitMarkers identify the holding page. ordinary pages embed the tracer
// script as well, so only the error/construction templates count.
var WaitMarkers = []string{
	"img_error.png",
	"img_construction.png",
}

const DefaultTracerDomain = "tracer.dhlottery.co.kr"

// IsWaitPage reports whether `res` is the holding page instead of the
// requested content.
func IsWaitPage(res *resty.Response) bool {
	if res == nil || res.StatusCode() != 200 {
		return false
	}
	contentType := strings.ToLower(res.Header().Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		return false
	}
	return containsMarker(res.String())
}

func containsMarker(body string) bool {
	for _, marker := range WaitMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Context is the queue state embedded in one holding page.
type Context struct {
	Host         string
	IP           string
	LoginID      string
	Port         string
	PageURL      string
	TracerDomain string
}

func inlineVar(body, name string) string {
	re := regexp.MustCompile(`var\s+` + regexp.QuoteMeta(name) + `\s*=\s*['"]([^'"]+)['"]`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseContext reads the inline script variables of a holding page
// served for `page`. it fails when the page does not expose the client ip.
func ParseContext(body string, page *url.URL) (Context, bool) {
	ip := inlineVar(body, "ip")
	if ip == "" {
		return Context{}, false
	}

	defaultPort := "80"
	if page.Scheme == "https" {
		defaultPort = "443"
	}
	// "/" maps to an empty page, only a missing path means the main page
	defaultPage := "main"
	if page.Path != "" {
		defaultPage = strings.TrimPrefix(page.Path, "/")
	}
	if page.RawQuery != "" {
		defaultPage = fmt.Sprintf("%s?%s", defaultPage, page.RawQuery)
	}

	return Context{
		Host:         firstNonEmpty(inlineVar(body, "host"), page.Host, "www.dhlottery.co.kr"),
		IP:           ip,
		LoginID:      firstNonEmpty(inlineVar(body, "loginId"), ip),
		Port:         firstNonEmpty(inlineVar(body, "port"), defaultPort),
		PageURL:      firstNonEmpty(inlineVar(body, "pageUrl"), defaultPage),
		TracerDomain: firstNonEmpty(inlineVar(body, "tracer_domain"), DefaultTracerDomain),
	}, true
}

// NewQueueCookie synthesizes a queue id bound to the client ip.
func NewQueueCookie(ip string, rng *rand.Rand) string {
	return fmt.Sprintf("%s_T_%d_WC", ip, 10000+rng.Intn(90000))
}

var tracerParameter = regexp.MustCompile(`(?s)<Parameter\s+id="([^"]+)"[^>]*>(.*?)</Parameter>`)

// ParseParameters reads the `<Parameter id="k">v</Parameter>` list the
// tracer answers with.
func ParseParameters(body string) map[string]string {
	out := map[string]string{}
	for _, m := range tracerParameter.FindAllStringSubmatch(body, -1) {
		out[m[1]] = strings.TrimSpace(m[2])
	}
	return out
}
