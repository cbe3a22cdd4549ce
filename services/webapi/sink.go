package webapi

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/mypage"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"fmt"
	"log/slog"
	"time"
)

// userSink remembers the virtual accounts assigned to a user and logs
// everything else.
type userSink struct {
	username string
	book     *accountBook
	now      func() time.Time
}

func (s userSink) ReportPurchase(ctx context.Context, result lotto645.PurchaseResult) error {
	slog.InfoContext(ctx, "purchased lotto645", "username", s.username, "round", result.Round, "games", len(result.Slots))
	return nil
}

func (s userSink) ReportBalance(ctx context.Context, balance mypage.Balance) error {
	slog.DebugContext(ctx, "balance", "username", s.username, "available", balance.Available)
	return nil
}

func (s userSink) ReportBuyList(ctx context.Context, list mypage.BuyList) error {
	slog.DebugContext(ctx, "buy list", "username", s.username, "entries", len(list.Entries))
	return nil
}

func (s userSink) ReportVirtualAccount(ctx context.Context, record vaccount.Record) error {
	if !extract.ValidAccount(record.AccountNumber) {
		return fmt.Errorf("유효한 가상계좌 번호를 확인하지 못했습니다. (account: %s)", record.AccountNumber)
	}
	s.book.set(AssignedAccount{
		Username:   s.username,
		Record:     record,
		AssignedAt: s.now(),
	})
	slog.InfoContext(ctx, "assigned virtual account", "username", s.username, "bank", record.BankName)
	return nil
}
