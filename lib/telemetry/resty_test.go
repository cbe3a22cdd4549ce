package telemetry

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestBodyAttribute(t *testing.T) {
	testCases := []struct {
		name   string
		req    *http.Request
		expect string
	}{
		{
			name:   "no request",
			expect: "",
		},
		{
			name:   "no GetBody",
			req:    &http.Request{},
			expect: "",
		},
		{
			name: "GetBody yields nothing",
			req: &http.Request{GetBody: func() (io.ReadCloser, error) {
				return nil, nil
			}},
			expect: "",
		},
		{
			name: "GetBody fails",
			req: &http.Request{GetBody: func() (io.ReadCloser, error) {
				return nil, errors.New("gone")
			}},
			expect: "failed to get request body: gone",
		},
		{
			name: "form body",
			req: &http.Request{GetBody: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("round=1100")), nil
			}},
			expect: "round=1100",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			attr := requestBodyAttribute(test.req)
			require.Equal(t, "request/body", string(attr.Key))
			require.Equal(t, test.expect, attr.Value.AsString())
		})
	}
}
