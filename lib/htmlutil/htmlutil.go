package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("dhapi.lib.htmlutil")

// elements whose text is never rendered
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// VisibleText returns every rendered text node under `nodes`, each
// trimmed, joined by a single space.
func VisibleText(nodes ...*html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && invisibleElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				parts = append(parts, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims `s` and squashes inner whitespace runs.
func CollapseWhitespace(s string) string {
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ScriptSources resolves every <script src> in `doc` against `base`.
func ScriptSources(ctx context.Context, doc *goquery.Document, base *url.URL) []*url.URL {
	_, span := tracer.Start(ctx, "ScriptSources")
	defer span.End()

	var out []*url.URL
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		link, err := base.Parse(src)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing script url")
			return
		}
		out = append(out, link)
		span.AddEvent("script", trace.WithAttributes(
			attribute.String("url", link.String()),
		))
	})
	return out
}
