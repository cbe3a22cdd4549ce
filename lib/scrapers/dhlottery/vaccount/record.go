package vaccount

import (
	"dhapi/lib/scrapers/dhlottery/extract"
	"fmt"
	"strings"
)

// Deposit is a requested top up in won.
type Deposit struct {
	amount int64
}

func NewDeposit(amount int64) (Deposit, error) {
	if amount <= 0 {
		return Deposit{}, fmt.Errorf("deposit amount must be positive (got %d)", amount)
	}
	return Deposit{amount: amount}, nil
}

func (d Deposit) Amount() int64 {
	return d.amount
}

// Record is a resolved virtual account. AccountNumber and AmountText are
// always set, BankName and AccountHolder are best effort.
type Record struct {
	AccountNumber string `json:"account"`
	AmountText    string `json:"amount"`
	BankName      string `json:"bank_name,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
}

// newRecord fills the gaps of `fields` with the requested amount and the
// default bank, it fails when there is no valid account number.
func newRecord(fields extract.Fields, deposit Deposit) (Record, bool) {
	account := extract.NormalizeAccount(fields.Account)
	if !extract.ValidAccount(account) {
		return Record{}, false
	}
	record := Record{
		AccountNumber: account,
		AmountText:    strings.TrimSpace(fields.Amount),
		BankName:      strings.TrimSpace(fields.Bank),
		AccountHolder: strings.TrimSpace(fields.Holder),
	}
	if record.AmountText == "" {
		record.AmountText = extract.FormatWon(deposit.amount)
	}
	if record.BankName == "" {
		record.BankName = extract.DefaultBank.Name
	}
	if record.AccountHolder != "" && !extract.ValidHolder(record.AccountHolder) {
		record.AccountHolder = ""
	}
	return record, true
}
