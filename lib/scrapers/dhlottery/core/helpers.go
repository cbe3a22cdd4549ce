package core

import (
	"encoding/json"
	"mime"
	"strings"

	"github.com/go-resty/resty/v2"
)

// FinalURL is the url of the last hop after redirects.
func FinalURL(res *resty.Response) string {
	if res == nil || res.RawResponse == nil || res.RawResponse.Request == nil {
		return ""
	}
	return res.RawResponse.Request.URL.String()
}

func contentType(res *resty.Response) string {
	mediatype, _, err := mime.ParseMediaType(res.Header().Get("Content-Type"))
	if err != nil {
		return strings.ToLower(res.Header().Get("Content-Type"))
	}
	return mediatype
}

func IsHTML(res *resty.Response) bool {
	return res != nil && contentType(res) == "text/html"
}

func IsJSON(res *resty.Response) bool {
	return res != nil && strings.Contains(contentType(res), "json")
}

// DecodeJSON unmarshals the body of `res` into `out`, numbers are kept
// as json.Number when `out` is untyped.
func DecodeJSON(res *resty.Response, out any) error {
	decoder := json.NewDecoder(strings.NewReader(res.String()))
	decoder.UseNumber()
	return decoder.Decode(out)
}

// AjaxHeaders are the headers the site's own scripts send on XHR calls.
// `menuURI` is optional.
func AjaxHeaders(referer, menuURI string) map[string]string {
	headers := map[string]string{
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
		"AJAX":             "true",
		"Referer":          referer,
	}
	if menuURI != "" {
		headers["requestMenuUri"] = menuURI
	}
	return headers
}
