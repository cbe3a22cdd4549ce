package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestVisibleText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html>
<head><title>ignored</title><script>var a = '123-456';</script></head>
<body>
	<div>  가상계좌 </div>
	<p>케이뱅크<span> 123-4567-8901-23</span></p>
	<style>.x { color: red }</style>
</body></html>`))
	require.NoError(t, err)

	require.Equal(t, "가상계좌 케이뱅크 123-4567-8901-23", VisibleText(doc.Nodes...))
}

func TestScriptSources(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<script src="/js/common.js"></script>
<script src="https://cdn.example.com/lib.js?v=1"></script>
<script>inline()</script>
<script src=" "></script>
</body></html>`))
	require.NoError(t, err)

	base, err := url.Parse("https://www.dhlottery.co.kr/mypage/mndpChrg")
	require.NoError(t, err)

	var got []string
	for _, u := range ScriptSources(context.Background(), doc, base) {
		got = append(got, u.String())
	}
	require.Equal(t, []string{
		"https://www.dhlottery.co.kr/js/common.js",
		"https://cdn.example.com/lib.js?v=1",
	}, got)
}

func TestCollapseWhitespace(t *testing.T) {
	require.Equal(t, "a b c", CollapseWhitespace("  a \n\t b   c "))
}
