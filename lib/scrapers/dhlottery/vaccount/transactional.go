package vaccount

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/timezone"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

const (
	smartChargePath   = "/mypage/selectSmrtChrgInfo.do"
	kbankInitPath     = "/mypage/kbankInit.do"
	kbankProcessPath  = "/mypage/kbankProcess.do"
	defaultGoodsName  = "복권예치금"
	vbankPayMethod    = "VBANK"
	resultCodeFailure = "FAIL"
)

// keys that identify the request object of kbankInit when it is not
// wrapped in "reqVO"
var initKeys = []string{
	"payMethod", "goodsName", "moid", "userIP", "mallUserID",
	"vbankExpDate", "amt", "vbankBankCode", "fxVrAccountNo", "buyerName",
}

// keys that identify the result object of kbankProcess when it is not
// wrapped in "resVO"
var processKeys = []string{
	"vbankNum", "vbankBankName", "resultCode", "amt", "mallUserIDMask", "payMethodName",
}

// pickFirst returns the first non empty scalar under `keys`.
func pickFirst(obj *extract.Object, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(obj.String(key)); value != "" {
			return value
		}
	}
	return ""
}

func pickOr(fallback string, obj *extract.Object, keys ...string) string {
	if value := pickFirst(obj, keys...); value != "" {
		return value
	}
	return fallback
}

// findWrapped returns the object stored under `wrapper`, or else the
// first object that has any of `keys`.
func findWrapped(payload any, wrapper string, keys []string) (*extract.Object, bool) {
	if obj, ok := extract.FindKey(payload, wrapper); ok && len(obj.Keys) > 0 {
		return obj, true
	}
	return extract.FindObject(payload, func(obj *extract.Object) bool {
		for _, k := range obj.Keys {
			for _, want := range keys {
				if strings.EqualFold(k, want) {
					return true
				}
			}
		}
		return false
	})
}

// transactional replays the charge page's own "issue a virtual account"
// flow: kbankInit followed by kbankProcess.
func transactional(ctx context.Context, a *Attempt) Outcome {
	session := a.resolver.session
	headers := core.AjaxHeaders(session.URL(chargePagePath), chargePagePath)
	amount := strconv.FormatInt(a.Deposit.amount, 10)
	expires := a.resolver.opts.Now().AddDate(0, 0, 1).Format(timezone.CompactLayout)

	res, err := session.Request(ctx, core.Request{URL: smartChargePath, Headers: headers})
	if err == nil && res.StatusCode() == 200 && core.IsJSON(res) {
		payload, err := extract.Decode(res.Body())
		if err == nil {
			if value, ok := extract.FindKey(payload, "easyChargeUser"); ok && value.String("maintenaceUseYn") == "Y" {
				slog.WarnContext(ctx, "selectSmrtChrgInfo indicates maintenance window for charge flow")
			}
		}
	}

	initQuery := url.Values{}
	initQuery.Set("VbankExpDate", expires)
	initQuery.Set("PayMethod", vbankPayMethod)
	initQuery.Set("VbankBankCode", extract.DefaultBank.Code)
	initQuery.Set("Price", amount)
	res, out := a.fetch(ctx, "kbankInit", core.Request{URL: kbankInitPath, Query: initQuery, Headers: headers})
	if out != nil {
		return *out
	}
	if !core.IsJSON(res) {
		return notFound("kbankInit: not json (%s)", res.Header().Get("Content-Type"))
	}
	a.dump("mypage_kbankInit.json", res.Body())
	initPayload, err := extract.Decode(res.Body())
	if err != nil {
		return notFound("kbankInit: %v", err)
	}
	reqVO, ok := findWrapped(initPayload, "reqVO", initKeys)
	if !ok {
		return notFound("kbankInit: no reqVO in payload")
	}

	accountFromInit := pickFirst(reqVO, "fxVrAccountNo", "vbankNum", "VbankNum")
	processQuery := url.Values{}
	processQuery.Set("PayMethod", pickOr(vbankPayMethod, reqVO, "payMethod", "PayMethod"))
	processQuery.Set("GoodsName", pickOr(defaultGoodsName, reqVO, "goodsName", "GoodsName"))
	processQuery.Set("Moid", pickFirst(reqVO, "moid", "Moid"))
	processQuery.Set("UserIP", pickFirst(reqVO, "userIP", "UserIP"))
	processQuery.Set("MallUserID", pickFirst(reqVO, "mallUserID", "MallUserID"))
	processQuery.Set("VbankExpDate", pickOr(expires, reqVO, "vbankExpDate", "VbankExpDate"))
	processQuery.Set("Amt", pickOr(amount, reqVO, "amt", "Amt"))
	processQuery.Set("VbankBankCode", pickOr(extract.DefaultBank.Code, reqVO, "vbankBankCode", "VbankBankCode"))
	processQuery.Set("VbankNum", accountFromInit)
	processQuery.Set("FxVrAccountNo", pickFirst(reqVO, "fxVrAccountNo", "FxVrAccountNo", "vbankNum", "VbankNum"))
	processQuery.Set("VBankAccountName", pickFirst(reqVO, "buyerName", "VBankAccountName", "BuyerName"))

	res, out = a.fetch(ctx, "kbankProcess", core.Request{URL: kbankProcessPath, Query: processQuery, Headers: headers})
	if out != nil {
		return *out
	}
	if !core.IsJSON(res) {
		return notFound("kbankProcess: not json (%s)", res.Header().Get("Content-Type"))
	}
	a.dump("mypage_kbankProcess.json", res.Body())
	processPayload, err := extract.Decode(res.Body())
	if err != nil {
		return notFound("kbankProcess: %v", err)
	}
	resVO, ok := findWrapped(processPayload, "resVO", processKeys)
	if !ok {
		return notFound("kbankProcess: no resVO in payload")
	}

	if strings.EqualFold(pickFirst(resVO, "resultCode"), resultCodeFailure) {
		return notFound("kbankProcess: resultCode=FAIL")
	}

	account := pickFirst(resVO, "vbankNum", "VbankNum")
	if account == "" {
		account = pickFirst(reqVO, "fxVrAccountNo", "FxVrAccountNo", "vbankNum", "VbankNum")
	}
	fields := extract.Fields{
		Account: account,
		Amount:  extract.FormatWon(pickOr(pickOr(amount, reqVO, "amt", "Amt"), resVO, "amt", "Amt")),
		Bank:    pickFirst(resVO, "vbankBankName", "VbankBankName"),
		Holder:  pickOr(pickFirst(reqVO, "buyerName", "VBankAccountName"), resVO, "vBankAccountName", "VBankAccountName", "buyerName"),
	}
	if fields.Bank == "" {
		fields.Bank, _ = extract.BankByCode(pickOr(extract.DefaultBank.Code, reqVO, "vbankBankCode", "VbankBankCode"))
	}
	record, ok := newRecord(fields, a.Deposit)
	if !ok {
		return notFound("kbankProcess: invalid account candidate %q", extract.NormalizeAccount(account))
	}
	return found(record)
}
