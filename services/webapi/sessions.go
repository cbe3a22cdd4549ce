package webapi

import (
	"context"
	"dhapi/lib/scrapers/dhlottery"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/mypage"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Account is a logged in dhlottery session.
type Account interface {
	BuyLotto645(ctx context.Context, tickets []lotto645.Ticket) (lotto645.PurchaseResult, error)
	ShowBalance(ctx context.Context) (mypage.Balance, error)
	ShowBuyList(ctx context.Context, start, end time.Time) (mypage.BuyList, error)
	WeeklyUsage(ctx context.Context) (mypage.WeeklyUsage, error)
	AssignVirtualAccount(ctx context.Context, amount int64) (vaccount.Record, error)
}

// LoginFunc opens a new Account, results of its operations are reported
// to `sink`.
type LoginFunc func(ctx context.Context, username, password string, sink dhlottery.Sink) (Account, error)

// DefaultLogin logs in to the real site with `opts`.
func DefaultLogin(opts dhlottery.Options) LoginFunc {
	return func(ctx context.Context, username, password string, sink dhlottery.Sink) (Account, error) {
		client, err := dhlottery.New(ctx, opts, sink)
		if err != nil {
			return nil, err
		}
		err = client.Login(ctx, username, password)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

type session struct {
	id        string
	username  string
	createdAt time.Time

	// the site only tolerates one flow at a time per login
	mu      sync.Mutex
	account Account
}

// do runs `fn` while holding the session's lock.
func (s *session) do(fn func(account Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.account)
}

type sessionStore struct {
	cache *expirable.LRU[string, *session]
}

func newSessionStore(size int, ttl time.Duration) sessionStore {
	return sessionStore{
		cache: expirable.NewLRU[string, *session](size, nil, ttl),
	}
}

func (s sessionStore) add(username string, account Account, now time.Time) *session {
	sess := &session{
		id:        uuid.NewString(),
		username:  username,
		createdAt: now,
		account:   account,
	}
	s.cache.Add(sess.id, sess)
	return sess
}

func (s sessionStore) get(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	return s.cache.Get(id)
}

func (s sessionStore) remove(id string) {
	s.cache.Remove(id)
}

// AssignedAccount is the last virtual account handed to a user.
type AssignedAccount struct {
	Username string `json:"username"`
	vaccount.Record
	AssignedAt time.Time `json:"assigned_at"`
}

type accountBook struct {
	mu       sync.Mutex
	accounts map[string]AssignedAccount
}

func (b *accountBook) set(a AssignedAccount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.accounts == nil {
		b.accounts = map[string]AssignedAccount{}
	}
	b.accounts[a.Username] = a
}

func (b *accountBook) get(username string) (AssignedAccount, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[username]
	return a, ok
}
