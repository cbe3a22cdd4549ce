package mypage

import (
	"context"
	"dhapi/lib/timezone"
	"time"
)

const (
	// weekly cap on online purchases
	WeeklyLimit = 5000
	GamePrice   = 1000
)

type WeeklyUsage struct {
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Limit     int64     `json:"weekly_limit_amount"`
	Purchased int64     `json:"week_purchased_amount"`
	Remaining int64     `json:"week_remaining_amount"`
}

// ComputeWeeklyUsage totals `entries` against the weekly cap.
func ComputeWeeklyUsage(start, end time.Time, entries []Entry) WeeklyUsage {
	usage := WeeklyUsage{WeekStart: start, WeekEnd: end, Limit: WeeklyLimit}
	for _, entry := range entries {
		if entry.Quantity <= 0 {
			continue
		}
		usage.Purchased += entry.Quantity * GamePrice
	}
	usage.Remaining = max(0, usage.Limit-usage.Purchased)
	return usage
}

// WeeklyUsage reports online purchases of the current monday to sunday
// week.
func (c *Client) WeeklyUsage(ctx context.Context) (WeeklyUsage, error) {
	start, end := timezone.GetCurrentWeek(c.Now())
	list, err := c.BuyList(ctx, start, end)
	if err != nil {
		return WeeklyUsage{}, err
	}
	return ComputeWeeklyUsage(start, end, list.Entries), nil
}
