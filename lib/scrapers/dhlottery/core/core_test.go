package core

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"dhapi/lib/telemetry"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type loginSite struct {
	lock sync.Mutex
	key  *rsa.PrivateKey

	maintenance bool
	noKey       bool
	password    string

	submitHits int
	gotUser    string
	gotInput   string
}

func (s *loginSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if s.maintenance {
			http.Redirect(w, r, "/index_check.html", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>home</html>")
	})
	mux.HandleFunc("/index_check.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>점검중</html>")
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "DHJSESSIONID", Value: "seed", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>login</html>")
	})
	mux.HandleFunc(RsaKeyPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.noKey {
			fmt.Fprint(w, `{"resultCode":"E"}`)
			return
		}
		fmt.Fprintf(
			w, `{"data":{"rsaModulus":"%s","publicExponent":"%x"}}`,
			s.key.N.Text(16), s.key.E,
		)
	})
	mux.HandleFunc(LoginPath, func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.submitHits++
		s.gotUser = s.decrypt(r.FormValue("userId"))
		s.gotInput = r.FormValue("inpUserId")
		password := s.decrypt(r.FormValue("userPswdEncn"))
		s.lock.Unlock()

		if password != s.password {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><p class="txt">아이디 또는 비밀번호가 일치하지 않습니다.</p><a class="btn_common">확인</a></html>`)
			return
		}
		http.Redirect(w, r, "/loginSuccess", http.StatusFound)
	})
	mux.HandleFunc("/loginSuccess", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>welcome</html>")
	})
	mux.HandleFunc(MainPage, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>main</html>")
	})
	mux.HandleFunc(Game645Page, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: SessionToken, Value: "game", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>game</html>")
	})
	return mux
}

func (s *loginSite) decrypt(value string) string {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return ""
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, s.key, raw)
	if err != nil {
		return ""
	}
	return string(plain)
}

func (s *loginSite) hits() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.submitHits
}

func newLoginSite(t *testing.T) *loginSite {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	return &loginSite{key: key, password: "hunter2!"}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), ClientOptions{
		Endpoints: Endpoints{
			Base:       server.URL,
			Game:       server.URL,
			TracerBase: server.URL + "/TRACERAPI",
		},
		RequestsPerSecond:       -1,
		DisableCloudflareBypass: true,
	})
	require.NoError(t, err)
	return client
}

func TestLoginSucceeds(t *testing.T) {
	site := newLoginSite(t)
	client := newTestClient(t, site.handler())

	err := client.Login(context.Background(), "tester", "hunter2!")
	require.NoError(t, err)
	require.Equal(t, 1, site.hits())
	require.Equal(t, "tester", site.gotUser)
	require.Equal(t, "tester", site.gotInput)
	require.True(t, client.HasCookie(SessionToken))
}

func TestLoginBadCredentials(t *testing.T) {
	site := newLoginSite(t)
	client := newTestClient(t, site.handler())

	err := client.Login(context.Background(), "tester", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.True(t, authErr.BadCredentials)
	require.Contains(t, authErr.Reason, "일치하지 않습니다")
}

func TestLoginWithoutKeyNeverSubmits(t *testing.T) {
	site := newLoginSite(t)
	site.noKey = true
	client := newTestClient(t, site.handler())

	err := client.Login(context.Background(), "tester", "hunter2!")
	require.ErrorIs(t, err, ErrKeyUnavailable)
	require.Equal(t, 0, site.hits())
}

func TestLoginDuringMaintenance(t *testing.T) {
	site := newLoginSite(t)
	site.maintenance = true
	client := newTestClient(t, site.handler())

	err := client.Login(context.Background(), "tester", "hunter2!")
	require.True(t, errors.Is(err, ErrServiceUnavailable))
	require.Equal(t, 0, site.hits())
}

func TestPublicKeyRejectsGarbage(t *testing.T) {
	_, err := publicKey("zz", "10001")
	require.Error(t, err)
	_, err = publicKey("c0ffee", "1")
	require.Error(t, err)
}

func TestAjaxHeaders(t *testing.T) {
	headers := AjaxHeaders("https://example.com/ref", "")
	require.Equal(t, "XMLHttpRequest", headers["X-Requested-With"])
	_, ok := headers["requestMenuUri"]
	require.False(t, ok)

	headers = AjaxHeaders("https://example.com/ref", "/mypage/home")
	require.Equal(t, "/mypage/home", headers["requestMenuUri"])
}

func TestURLResolution(t *testing.T) {
	client, err := NewClient(context.Background(), ClientOptions{DisableCloudflareBypass: true})
	require.NoError(t, err)
	require.Equal(t, "https://www.dhlottery.co.kr/mypage/home", client.URL("/mypage/home"))
	require.Equal(t, "https://ol.dhlottery.co.kr/olotto/game/execBuy.do", client.GameURL("/olotto/game/execBuy.do"))
	require.Equal(t, "https://tracer.dhlottery.co.kr/x", client.URL("https://tracer.dhlottery.co.kr/x"))
}

func TestInstrumentedRequests(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/scrapers/dhlottery/core")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "%s %s", r.Method, r.PostForm.Get("round"))
	}))

	testCases := []struct {
		name   string
		req    Request
		expect string
	}{
		{
			name:   "get without body",
			req:    Request{URL: "/common.do"},
			expect: "GET ",
		},
		{
			name:   "post with form",
			req:    Request{Method: http.MethodPost, URL: "/common.do", Form: map[string]string{"round": "1100"}},
			expect: "POST 1100",
		},
		{
			name:   "post without body",
			req:    Request{Method: http.MethodPost, URL: "/common.do"},
			expect: "POST ",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			res, err := client.Send(context.Background(), test.req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, res.StatusCode())
			require.Equal(t, test.expect, res.String())

			res, err = client.Request(context.Background(), test.req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, res.StatusCode())
			require.Equal(t, test.expect, res.String())
		})
	}
}
