package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatWon(t *testing.T) {
	testCases := []struct {
		in     any
		expect string
	}{
		{in: 15000, expect: "15,000원"},
		{in: int64(1000), expect: "1,000원"},
		{in: 15000.0, expect: "15,000원"},
		{in: json.Number("15000"), expect: "15,000원"},
		{in: json.Number("15000.00"), expect: "15,000원"},
		{in: "15000", expect: "15,000원"},
		{in: "15,000원", expect: "15,000원"},
		{in: " 5000 원 ", expect: "5,000원"},
		{in: "15000.00", expect: "15,000원"},
		{in: "없음", expect: "없음"},
		{in: nil, expect: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, FormatWon(test.in), "%#v", test.in)
	}
}
