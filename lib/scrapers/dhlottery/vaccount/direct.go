package vaccount

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/mypage"
)

const (
	homePagePath   = mypage.HomePage
	chargePagePath = mypage.ChargePage
	userMndpPath   = mypage.UserMndpPath
)

// direct reads an already issued account off the deposit info endpoint.
func direct(ctx context.Context, a *Attempt) Outcome {
	session := a.resolver.session
	res, out := a.fetch(ctx, "selectUserMndp", core.Request{
		URL:     userMndpPath,
		Headers: core.AjaxHeaders(session.URL(homePagePath), homePagePath),
	})
	if out != nil {
		return *out
	}
	if !core.IsJSON(res) {
		return notFound("selectUserMndp: not json (%s)", res.Header().Get("Content-Type"))
	}
	payload, err := extract.Decode(res.Body())
	if err != nil {
		return notFound("selectUserMndp: %v", err)
	}
	record, ok := newRecord(extract.FromPayload(payload), a.Deposit)
	if !ok {
		a.dump("selectUserMndp.json", res.Body())
		return notFound("selectUserMndp: no account in payload")
	}
	return found(record)
}

// chargePage scrapes the deposit charge page, first its visible content
// and then its form fields.
func chargePage(ctx context.Context, a *Attempt) Outcome {
	p, out := a.loadChargePage(ctx)
	if out != nil {
		return *out
	}

	if record, ok := newRecord(extract.FromDocument(p.doc, p.body), a.Deposit); ok {
		return found(record)
	}
	if record, ok := newRecord(extract.FromPayload(extract.HiddenInputs(p.doc)), a.Deposit); ok {
		return found(record)
	}
	a.dump("mndpChrg.html", p.body)
	return notFound("charge page: no account in markup or form fields")
}
