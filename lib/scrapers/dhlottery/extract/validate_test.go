package extract

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAccount(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
	}{
		{in: " 123-4567-890-1234 ", expect: "123-4567-890-1234"},
		{in: "123 4567 890 1234", expect: "12345678901234"},
		{in: "--123---4567--", expect: "123-4567"},
		{in: "계좌: 123-4567", expect: "123-4567"},
		{in: "", expect: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, NormalizeAccount(test.in), test.in)
	}
}

func TestValidAccount(t *testing.T) {
	testCases := []struct {
		in     string
		expect bool
	}{
		{in: "123-4567-890-1234", expect: true},
		{in: "7979-12-3456789", expect: true},
		{in: "1234567890", expect: true},
		{in: "1234567890123456", expect: true},
		{in: "123456789", expect: false},
		{in: "12345678901234567", expect: false},
		{in: "1588-6450", expect: false},
		{in: "010-1234-5678", expect: false},
		{in: "031-123-4567", expect: false},
		{in: "02-1234-5678", expect: false},
		{in: "-123-4567-890-", expect: true},
		{in: "abc", expect: false},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, ValidAccount(test.in), test.in)
	}
}

var independentPhoneShape = regexp.MustCompile(`^0[0-9]{1,2}-[0-9]{3,4}-[0-9]{4}$`)

func randomDigits(rng *rand.Rand, n int) string {
	var out strings.Builder
	for i := 0; i < n; i++ {
		out.WriteString(strconv.Itoa(rng.Intn(10)))
	}
	return out.String()
}

// splits `digits` into 1 to 5 dash separated groups
func randomDashes(rng *rand.Rand, digits string) string {
	groups := 1 + rng.Intn(5)
	if groups > len(digits) {
		groups = len(digits)
	}
	cuts := map[int]bool{}
	for len(cuts) < groups-1 {
		cuts[1+rng.Intn(len(digits)-1)] = true
	}
	var out strings.Builder
	for i, c := range digits {
		if cuts[i] {
			out.WriteByte('-')
		}
		out.WriteRune(c)
	}
	return out.String()
}

func TestValidAccountGenerated(t *testing.T) {
	rng := rand.New(rand.NewSource(20021207))

	for i := 0; i < 5000; i++ {
		length := 10 + rng.Intn(7)
		candidate := randomDashes(rng, randomDigits(rng, length))
		expect := !independentPhoneShape.MatchString(candidate)
		require.Equal(t, expect, ValidAccount(candidate), candidate)
	}

	for i := 0; i < 2000; i++ {
		length := 1 + rng.Intn(9)
		if rng.Intn(2) == 0 {
			length = 17 + rng.Intn(8)
		}
		candidate := randomDashes(rng, randomDigits(rng, length))
		require.False(t, ValidAccount(candidate), candidate)
	}

	for i := 0; i < 2000; i++ {
		phone := "0" + randomDigits(rng, 1+rng.Intn(2)) +
			"-" + randomDigits(rng, 3+rng.Intn(2)) +
			"-" + randomDigits(rng, 4)
		require.False(t, ValidAccount(phone), phone)

		ars := strconv.Itoa(15+rng.Intn(5)) + randomDigits(rng, 2)
		if rng.Intn(2) == 0 {
			ars += "-"
		}
		ars += randomDigits(rng, 4)
		require.False(t, ValidAccount(ars), ars)
	}
}

func TestValidHolder(t *testing.T) {
	require.True(t, ValidHolder("홍길동"))
	require.True(t, ValidHolder("동행복권(ID)"))
	require.False(t, ValidHolder("홍"))
	require.False(t, ValidHolder("   "))
	require.False(t, ValidHolder(strings.Repeat("가", 31)))
}
