package lotto645

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type purchaseSite struct {
	lock     sync.Mutex
	response string
	form     map[string]string
}

func (s *purchaseSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ReadySocketPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ready_ip":"10.0.0.7"}`)
	})
	mux.HandleFunc(ExecBuyPath, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.lock.Lock()
		s.form = map[string]string{}
		for key := range r.PostForm {
			s.form[key] = r.PostForm.Get(key)
		}
		s.lock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s.response)
	})
	return mux
}

func (s *purchaseSite) submitted() map[string]string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.form
}

func newTestBuyer(t *testing.T, site *purchaseSite) *Buyer {
	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	client, err := core.NewClient(context.Background(), core.ClientOptions{
		Endpoints:               core.Endpoints{Base: server.URL, Game: server.URL},
		RequestsPerSecond:       -1,
		DisableCloudflareBypass: true,
	})
	require.NoError(t, err)

	buyer := NewBuyer(client)
	buyer.Now = func() time.Time {
		return kst(2025, time.January, 1, 12)
	}
	return buyer
}

func mustTicket(t *testing.T, s string) Ticket {
	ticket, err := ParseTicket(s)
	require.NoError(t, err)
	return ticket
}

func TestPurchaseSendsLines(t *testing.T) {
	site := &purchaseSite{
		response: `{"result":{"resultCode":"100","resultMsg":"SUCCESS","arrGameChoiceNum":["A|03|09|15|21|33|403","B|01|02|03|04|05|061"]}}`,
	}
	buyer := newTestBuyer(t, site)

	result, err := buyer.Purchase(context.Background(), []Ticket{
		mustTicket(t, ""),
		mustTicket(t, "6,5,4,3,2,1"),
	})
	require.NoError(t, err)
	require.Equal(t, 1153, result.Round)
	require.Equal(t, 2000, result.Amount)
	require.Len(t, result.Slots, 2)
	require.Equal(t, "수동", result.Slots[1].Mode)

	form := site.submitted()
	require.Equal(t, "1153", form["round"])
	require.Equal(t, "10.0.0.7", form["direct"])
	require.Equal(t, "2000", form["nBuyAmount"])
	require.Equal(t, "2", form["gameCnt"])
	require.Equal(t, "10", form["saleMdaDcd"])
	require.Equal(t, "2025/01/04", form["ROUND_DRAW_DATE"])
	require.Equal(t, "2026/01/04", form["WAMT_PAY_TLMT_END_DT"])

	var param []map[string]any
	require.NoError(t, json.Unmarshal([]byte(form["param"]), &param))
	want := []map[string]any{
		{"genType": "0", "arrGameChoiceNum": nil, "alpabet": "A"},
		{"genType": "1", "arrGameChoiceNum": "1,2,3,4,5,6", "alpabet": "B"},
	}
	if diff := cmp.Diff(want, param); diff != "" {
		t.Fatal("unexpected purchase lines (-want +got):\n", diff)
	}
}

func TestPurchaseRejected(t *testing.T) {
	site := &purchaseSite{
		response: `{"result":{"resultCode":"-1","resultMsg":"예치금이 부족합니다."}}`,
	}
	buyer := newTestBuyer(t, site)

	_, err := buyer.Purchase(context.Background(), []Ticket{mustTicket(t, "")})
	var purchaseErr *PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	require.Equal(t, "예치금이 부족합니다.", purchaseErr.Reason)
}

func TestPurchaseUnreadableResponse(t *testing.T) {
	site := &purchaseSite{response: `<html>oops</html>`}
	buyer := newTestBuyer(t, site)

	_, err := buyer.Purchase(context.Background(), []Ticket{mustTicket(t, "")})
	var purchaseErr *PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	require.Equal(t, unknownReason, purchaseErr.Reason)
}

func TestPurchaseTicketCount(t *testing.T) {
	site := &purchaseSite{}
	buyer := newTestBuyer(t, site)

	_, err := buyer.Purchase(context.Background(), nil)
	require.Error(t, err)

	tickets := make([]Ticket, MaxTickets+1)
	for i := range tickets {
		tickets[i] = mustTicket(t, "")
	}
	_, err = buyer.Purchase(context.Background(), tickets)
	var purchaseErr *PurchaseError
	require.ErrorAs(t, err, &purchaseErr)
	require.Nil(t, site.submitted())
}
