package mypage

import (
	"context"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/timezone"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const ledgerJSON = `{"data":{"list":[
	{"eltOrdrDt":"2025-01-02","ltGdsNm":"로또6/45","ltEpsdView":"1153","gmInfo":"12345","prchsQty":2,"ltWnResult":"미추첨","ltWnAmt":null,"epsdRflDt":"2025-01-04","ntslOrdrNo":"900"},
	{"eltOrdrDt":"2025-01-01","ltGdsNm":"연금복권720+","ltEpsdView":"245","gmInfo":"1조 123456","prchsQty":"1","ltWnResult":"낙첨","ltWnAmt":0,"epsdRflDt":"2025-01-02"}
]}}`

const detailJSON = `{"data":{"success":true,"ticket":{"game_dtl":[
	{"idx":"A","type":3,"num":[1,2,3,4,5,6]},
	{"idx":"B","type":1,"num":[7,8,9,10,11,12]}
]}}}`

type mypageSite struct {
	lock        sync.Mutex
	ledgerQuery url.Values
	detailQuery url.Values
	expired     bool
}

func (s *mypageSite) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
		fmt.Fprint(w, body)
	}
	mux.HandleFunc(UserMndpPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":{"userMndp":{
			"pntDpstAmt":1000,"pntTkmnyAmt":0,
			"ncsblDpstAmt":20000,"ncsblTkmnyAmt":5000,
			"csblDpstAmt":10000,"csblTkmnyAmt":null,
			"crntEntrsAmt":24000,"rsvtOrdrAmt":1000,"dawAplyAmt":500,"feeAmt":500}}}`)
	})
	mux.HandleFunc(HomeInfoPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":{"mnthPrchsAmt":7000}}`)
	})
	mux.HandleFunc(LedgerPage, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>ledger</html>")
	})
	mux.HandleFunc(LedgerPath, func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.ledgerQuery = r.URL.Query()
		s.lock.Unlock()
		if s.expired {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>login</html>")
			return
		}
		writeJSON(w, ledgerJSON)
	})
	mux.HandleFunc(TicketDetail, func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.detailQuery = r.URL.Query()
		s.lock.Unlock()
		writeJSON(w, detailJSON)
	})
	return mux
}

func newTestClient(t *testing.T, site *mypageSite) *Client {
	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	session, err := core.NewClient(context.Background(), core.ClientOptions{
		Endpoints:               core.Endpoints{Base: server.URL, Game: server.URL},
		RequestsPerSecond:       -1,
		DisableCloudflareBypass: true,
	})
	require.NoError(t, err)

	client := NewClient(session)
	client.DetailDelay = 0
	client.Now = func() time.Time {
		return time.Date(2025, time.January, 3, 9, 0, 0, 0, timezone.Location)
	}
	return client
}

func TestBalance(t *testing.T) {
	client := newTestClient(t, &mypageSite{})
	balance, err := client.Balance(context.Background())
	require.NoError(t, err)

	want := Balance{
		Total:             26000,
		Available:         24000,
		Reserved:          1000,
		WithdrawRequested: 500,
		Unavailable:       2000,
		MonthlyPurchased:  7000,
	}
	if diff := cmp.Diff(want, balance); diff != "" {
		t.Fatal("unexpected balance (-want +got):\n", diff)
	}
}

func TestBuyList(t *testing.T) {
	site := &mypageSite{}
	client := newTestClient(t, site)

	list, err := client.BuyList(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, list.Entries, 2)

	require.Equal(t, "20241220", site.ledgerQuery.Get("srchStrDt"))
	require.Equal(t, "20250103", site.ledgerQuery.Get("srchEndDt"))
	require.Equal(t, "100", site.ledgerQuery.Get("recordCountPerPage"))

	lotto := list.Entries[0]
	require.Equal(t, "[A] 자동: 1 2 3 4 5 6\n[B] 수동: 7 8 9 10 11 12", lotto.Numbers)
	require.Equal(t, int64(2), lotto.Quantity)
	require.Equal(t, int64(0), lotto.WinAmount)
	require.Equal(t, "900", site.detailQuery.Get("ntslOrdrNo"))
	require.Equal(t, "12345", site.detailQuery.Get("barcd"))
	require.Equal(t, "20241226", site.detailQuery.Get("srchStrDt"))
	require.Equal(t, "20250109", site.detailQuery.Get("srchEndDt"))

	pension := list.Entries[1]
	require.Equal(t, "1조 123456", pension.Numbers)
	require.Equal(t, int64(1), pension.Quantity)
}

func TestBuyListExpiredSession(t *testing.T) {
	client := newTestClient(t, &mypageSite{expired: true})
	_, err := client.BuyList(context.Background(), time.Time{}, time.Time{})
	require.ErrorIs(t, err, ErrBuyListUnavailable)
}

func TestWeeklyUsage(t *testing.T) {
	site := &mypageSite{}
	client := newTestClient(t, site)

	usage, err := client.WeeklyUsage(context.Background())
	require.NoError(t, err)
	require.Equal(t, "20241230", site.ledgerQuery.Get("srchStrDt"))
	require.Equal(t, "20250105", site.ledgerQuery.Get("srchEndDt"))
	require.Equal(t, int64(3000), usage.Purchased)
	require.Equal(t, int64(2000), usage.Remaining)
}

func TestComputeWeeklyUsageFloorsAtZero(t *testing.T) {
	usage := ComputeWeeklyUsage(time.Time{}, time.Time{}, []Entry{{Quantity: 5}, {Quantity: 3}, {Quantity: -1}})
	require.Equal(t, int64(8000), usage.Purchased)
	require.Equal(t, int64(0), usage.Remaining)
}
