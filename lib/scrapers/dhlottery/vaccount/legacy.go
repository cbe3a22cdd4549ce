package vaccount

import (
	"bytes"
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/timezone"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const kbankPath = "/kbank.do"

func kbankURL(method string) core.Request {
	return core.Request{
		Method: http.MethodPost,
		URL:    kbankPath,
		Query:  url.Values{"method": []string{method}},
	}
}

// legacyKbank is the older issuing flow on kbank.do, kbankInit hands out
// the payment form and kbankProcess renders the issued account.
func legacyKbank(ctx context.Context, a *Attempt) Outcome {
	session := a.resolver.session
	amount := strconv.FormatInt(a.Deposit.amount, 10)
	expires := a.resolver.opts.Now().AddDate(0, 0, 1).Format(timezone.CompactLayout)

	initReq := kbankURL("kbankInit")
	initReq.Form = map[string]string{
		"PayMethod":     vbankPayMethod,
		"VbankBankCode": extract.DefaultBank.Code,
		"price":         amount,
		"goodsName":     defaultGoodsName,
		"vExp":          expires,
	}
	res, out := a.fetch(ctx, "kbankInit", initReq)
	if out != nil {
		return *out
	}

	var data *extract.Object
	if obj, err := extract.DecodeObject(res.Body()); err == nil {
		data = obj
	} else {
		// the response is sometimes already the final result page
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			return notFound("kbankInit: %v", err)
		}
		if record, ok := newRecord(extract.FromDocument(doc, res.Body()), a.Deposit); ok {
			return found(record)
		}
		data = extract.HiddenInputs(doc)
		if len(data.Keys) == 0 {
			a.dump("kbankInit.html", res.Body())
			return notFound("kbankInit: response has neither json nor form fields")
		}
	}

	account, _ := extract.Accept(extract.FieldAccount, extract.Candidates(data, extract.FieldAccount))
	bankCode := pickOr(extract.DefaultBank.Code, data, "VbankBankCode")
	bankName := pickFirst(data, "VbankBankName", "VBankName")
	if bankName == "" {
		bankName, _ = extract.BankByCode(bankCode)
	}
	buyerName := pickFirst(data, "BuyerName", "VBankAccountName")
	amountValue := pickOr(amount, data, "amt", "Amt", "price")

	form := map[string]string{
		"PayMethod":        vbankPayMethod,
		"GoodsName":        pickOr(defaultGoodsName, data, "GoodsName"),
		"GoodsCnt":         "",
		"BuyerTel":         pickFirst(data, "BuyerTel"),
		"Moid":             pickFirst(data, "Moid"),
		"MID":              pickFirst(data, "MID"),
		"UserIP":           pickFirst(data, "UserIP"),
		"MallIP":           pickFirst(data, "MallIP"),
		"MallUserID":       pickFirst(data, "MallUserID"),
		"VbankExpDate":     pickOr(expires, data, "VbankExpDate"),
		"BuyerEmail":       pickFirst(data, "BuyerEmail"),
		"EdiDate":          pickFirst(data, "EdiDate"),
		"EncryptData":      pickFirst(data, "EncryptData"),
		"Amt":              amountValue,
		"BuyerName":        buyerName,
		"VbankBankCode":    bankCode,
		"VbankNum":         account,
		"FxVrAccountNo":    pickOr(account, data, "FxVrAccountNo"),
		"VBankAccountName": pickOr(buyerName, data, "VBankAccountName", "BuyerName"),
		"svcInfoPgMsgYn":   pickOr("N", data, "svcInfoPgMsgYn"),
		"OptionList":       pickOr("no_receipt", data, "OptionList"),
		"TransType":        pickOr("0", data, "TransType"),
	}
	if form["VbankNum"] == "" && form["FxVrAccountNo"] != "" {
		form["VbankNum"] = extract.NormalizeAccount(form["FxVrAccountNo"])
	}

	processReq := kbankURL("kbankProcess")
	processReq.Form = form
	processReq.Headers = map[string]string{
		"Origin":  session.URL("/"),
		"Referer": session.URL(kbankPath + "?method=kbankInit"),
	}
	res, out = a.fetch(ctx, "kbankProcess", processReq)
	if out != nil {
		return *out
	}

	fields := extract.FromHTML(res.Body())
	if fields.Account == "" {
		fields.Account = account
	}
	if fields.Amount == "" {
		fields.Amount = extract.FormatWon(amountValue)
	}
	if fields.Bank == "" {
		fields.Bank = bankName
	}
	if fields.Holder == "" {
		fields.Holder = buyerName
	}
	record, ok := newRecord(fields, a.Deposit)
	if !ok {
		a.dump("kbankProcess.html", res.Body())
		return notFound("kbankProcess: no valid account (candidate %q)", fields.Account)
	}
	return found(record)
}
