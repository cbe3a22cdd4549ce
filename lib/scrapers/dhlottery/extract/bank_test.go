package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalBankName(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
	}{
		{in: "089", expect: "케이뱅크"},
		{in: " 케이뱅크 ", expect: "케이뱅크"},
		{in: "케이 뱅크", expect: "케이뱅크"},
		{in: "K뱅크(케이뱅크)", expect: "케이뱅크"},
		{in: "카카오 뱅크", expect: "카카오뱅크"},
		{in: "Unknown Bank", expect: "Unknown Bank"},
		{in: "", expect: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, CanonicalBankName(test.in), test.in)
	}
}

func TestLookupBankName(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
		ok     bool
	}{
		{in: "090", expect: "카카오뱅크", ok: true},
		{in: "신한 은행", expect: "신한은행", ok: true},
		{in: "Y", ok: false},
		{in: "N", ok: false},
		{in: "Unknown Bank", ok: false},
		{in: "  ", ok: false},
	}
	for _, test := range testCases {
		name, ok := LookupBankName(test.in)
		require.Equal(t, test.ok, ok, test.in)
		require.Equal(t, test.expect, name, test.in)
	}
}

func TestFindBankName(t *testing.T) {
	name, ok := FindBankName("입금은행: 신한은행 또는 케이뱅크")
	require.True(t, ok)
	require.Equal(t, "신한은행", name)

	_, ok = FindBankName("no bank here")
	require.False(t, ok)

	name, ok = BankByCode("004")
	require.True(t, ok)
	require.Equal(t, "국민은행", name)
}
