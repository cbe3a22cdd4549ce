// Package webapi exposes the dhlottery operations as a cookie session
// json api.
package webapi

import (
	"context"
	"dhapi/lib/numberstore"
	"dhapi/lib/scrapers/dhlottery"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"dhapi/lib/telemetry"
	"dhapi/lib/timezone"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

var tracer = telemetry.Tracer("dhapi.services.webapi")

const (
	SessionCookie = "session_id"
	SessionTTL    = 24 * time.Hour
	maxSessions   = 1024
)

type Options struct {
	Login LoginFunc
	Store numberstore.Store
	Now   func() time.Time
}

type Server struct {
	login    LoginFunc
	store    numberstore.Store
	now      func() time.Time
	sessions sessionStore
	accounts *accountBook
}

func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return &Server{
		login:    opts.Login,
		store:    opts.Store,
		now:      opts.Now,
		sessions: newSessionStore(maxSessions, SessionTTL),
		accounts: &accountBook{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/buy-lotto645", s.authenticated(s.handleBuyLotto645))
	mux.HandleFunc("GET /api/balance", s.authenticated(s.handleBalance))
	mux.HandleFunc("POST /api/buy-list", s.authenticated(s.handleBuyList))
	mux.HandleFunc("GET /api/weekly-purchase-limit", s.authenticated(s.handleWeeklyLimit))
	mux.HandleFunc("POST /api/assign-virtual-account", s.authenticated(s.handleAssignVirtualAccount))
	mux.HandleFunc("GET /api/virtual-account", s.authenticated(s.handleVirtualAccount))
	mux.HandleFunc("GET /api/my-lotto-numbers", s.authenticated(s.handleListNumbers))
	mux.HandleFunc("POST /api/my-lotto-numbers", s.authenticated(s.handleSaveNumbers))
	mux.HandleFunc("DELETE /api/my-lotto-numbers/{id}", s.authenticated(s.handleDeleteNumbers))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Detail: message})
}

// writeFailure maps an operation error to a status code, `fallback` is
// used for errors that are not recognized.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error, fallback int) {
	status := fallback
	var authErr *core.AuthError
	switch {
	case dhlottery.IsTransient(err), errors.Is(err, core.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	slog.WarnContext(ctx, "request failed", "status", status, "err", err)
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(out)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session)

// authenticated resolves the session cookie before calling `next`.
func (s *Server) authenticated(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
			return
		}
		sess, ok := s.sessions.get(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "세션이 만료되었습니다. 다시 로그인해주세요.")
			return
		}
		next(w, r, sess)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Login")
	defer span.End()

	var req loginRequest
	err := decodeBody(w, r, &req)
	if err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "아이디와 비밀번호를 입력해주세요.")
		return
	}

	sink := userSink{username: req.Username, book: s.accounts, now: s.now}
	account, err := s.login(ctx, req.Username, req.Password, sink)
	if err != nil {
		span.RecordError(err)
		writeFailure(ctx, w, err, http.StatusUnauthorized)
		return
	}

	sess := s.sessions.add(req.Username, account, s.now())
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(SessionTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "로그인 성공",
		"session_id": sess.id,
		"username":   sess.username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		s.sessions.remove(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "로그아웃 되었습니다.",
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	sess, ok := s.sessions.get(cookie.Value)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      sess.username,
	})
}

type ticketRequest struct {
	// empty for an automatic line
	Numbers string `json:"numbers"`
}

type buyLotto645Request struct {
	Tickets []ticketRequest `json:"tickets"`
}

func (s *Server) handleBuyLotto645(w http.ResponseWriter, r *http.Request, sess *session) {
	var req buyLotto645Request
	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "잘못된 요청입니다.")
		return
	}
	if len(req.Tickets) == 0 || len(req.Tickets) > lotto645.MaxTickets {
		writeError(w, http.StatusBadRequest, "1~5게임까지 구매할 수 있습니다.")
		return
	}
	tickets := make([]lotto645.Ticket, len(req.Tickets))
	for i, t := range req.Tickets {
		tickets[i], err = lotto645.ParseTicket(t.Numbers)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var result lotto645.PurchaseResult
	err = sess.do(func(account Account) error {
		result, err = account.BuyLotto645(r.Context(), tickets)
		return err
	})
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "구매 완료",
		"data":    result,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, sess *session) {
	var data any
	err := sess.do(func(account Account) error {
		balance, err := account.ShowBalance(r.Context())
		data = balance
		return err
	})
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

type buyListRequest struct {
	// YYYYMMDD
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("20060102", s, timezone.Location)
}

func (s *Server) handleBuyList(w http.ResponseWriter, r *http.Request, sess *session) {
	var req buyListRequest
	if r.ContentLength != 0 {
		err := decodeBody(w, r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "잘못된 요청입니다.")
			return
		}
	}
	start, err := parseDay(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date는 YYYYMMDD 형식이어야 합니다.")
		return
	}
	end, err := parseDay(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date는 YYYYMMDD 형식이어야 합니다.")
		return
	}

	var data any
	err = sess.do(func(account Account) error {
		list, err := account.ShowBuyList(r.Context(), start, end)
		data = list
		return err
	})
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (s *Server) handleWeeklyLimit(w http.ResponseWriter, r *http.Request, sess *session) {
	var res map[string]any
	err := sess.do(func(account Account) error {
		usage, err := account.WeeklyUsage(r.Context())
		if err != nil {
			return err
		}
		res = map[string]any{
			"success":               true,
			"week_start":            usage.WeekStart.Format(time.DateOnly),
			"week_end":              usage.WeekEnd.Format(time.DateOnly),
			"weekly_limit_amount":   usage.Limit,
			"week_purchased_amount": usage.Purchased,
			"week_remaining_amount": usage.Remaining,
		}
		return nil
	})
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type assignVirtualAccountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleAssignVirtualAccount(w http.ResponseWriter, r *http.Request, sess *session) {
	var req assignVirtualAccountRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "잘못된 요청입니다.")
		return
	}
	_, err = vaccount.NewDeposit(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = sess.do(func(account Account) error {
		_, err := account.AssignVirtualAccount(r.Context(), req.Amount)
		return err
	})
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	assigned, ok := s.accounts.get(sess.username)
	if !ok {
		writeError(w, http.StatusInternalServerError, "가상계좌 정보를 저장하지 못했습니다.")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		AssignedAccount
	}{Success: true, AssignedAccount: assigned})
}

func (s *Server) handleVirtualAccount(w http.ResponseWriter, r *http.Request, sess *session) {
	assigned, ok := s.accounts.get(sess.username)
	var account any
	if ok {
		account = assigned
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"username":        sess.username,
		"has_account":     ok,
		"virtual_account": account,
	})
}
