package extract

import (
	"dhapi/lib/textutil"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FormatWon renders any numeric value as "N,NNN원". values that carry no
// digits are returned as their string form.
func FormatWon(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case int:
		return textutil.GroupThousands(int64(v)) + "원"
	case int64:
		return textutil.GroupThousands(v) + "원"
	case float64:
		return textutil.GroupThousands(int64(math.Trunc(v))) + "원"
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return textutil.GroupThousands(n) + "원"
		}
		if f, err := v.Float64(); err == nil {
			return textutil.GroupThousands(int64(math.Trunc(f))) + "원"
		}
		return v.String()
	case string:
		return formatWonText(v)
	default:
		return formatWonText(fmt.Sprint(v))
	}
}

func formatWonText(s string) string {
	s = strings.TrimSpace(s)
	// "15000.00" and friends
	if head, tail, ok := strings.Cut(s, "."); ok && strings.Trim(tail, "0원 ") == "" {
		s = head
	}
	n, ok := textutil.ParseDigits(s)
	if !ok {
		return s
	}
	return textutil.GroupThousands(n) + "원"
}
