package mypage

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// Balance is the deposit summary shown on the my page, all in won.
type Balance struct {
	Total             int64 `json:"total"`
	Available         int64 `json:"available"`
	Reserved          int64 `json:"reserved"`
	WithdrawRequested int64 `json:"withdraw_requested"`
	Unavailable       int64 `json:"unavailable"`
	// purchases over the last month
	MonthlyPurchased int64 `json:"monthly_purchased"`
}

// BalanceFromUserMndp computes the summary the same way the site's own
// script does from the "userMndp" object.
func BalanceFromUserMndp(mndp map[string]any) Balance {
	balance := Balance{
		Total: (number(mndp["pntDpstAmt"]) - number(mndp["pntTkmnyAmt"])) +
			(number(mndp["ncsblDpstAmt"]) - number(mndp["ncsblTkmnyAmt"])) +
			(number(mndp["csblDpstAmt"]) - number(mndp["csblTkmnyAmt"])),
		Available:         number(mndp["crntEntrsAmt"]),
		Reserved:          number(mndp["rsvtOrdrAmt"]),
		WithdrawRequested: number(mndp["dawAplyAmt"]),
	}
	balance.Unavailable = balance.Reserved + balance.WithdrawRequested + number(mndp["feeAmt"])
	return balance
}

func (c *Client) Balance(ctx context.Context) (Balance, error) {
	ctx, span := tracer.Start(ctx, "Balance")
	defer span.End()

	headers := core.AjaxHeaders(c.session.URL(HomePage), "")
	data, err := c.getJSON(ctx, core.Request{URL: UserMndpPath, Headers: headers})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user mndp")
		return Balance{}, fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
	}
	mndp := object(object(data["data"])["userMndp"])
	if mndp == nil {
		slog.WarnContext(ctx, "balance response has no userMndp")
		mndp = map[string]any{}
	}
	balance := BalanceFromUserMndp(mndp)

	// the monthly total is best effort
	info, err := c.getJSON(ctx, core.Request{URL: HomeInfoPath, Headers: headers})
	if err != nil {
		slog.WarnContext(ctx, "could not fetch monthly purchase total", "err", err)
	} else {
		balance.MonthlyPurchased = number(object(info["data"])["mnthPrchsAmt"])
	}
	return balance, nil
}
