package core

import (
	"context"
	"dhapi/lib/htmlutil"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const (
	LoginPage    = "/login"
	RsaKeyPath   = "/login/selectRsaModulus.do"
	LoginPath    = "/login/securityLoginCheck.do"
	MainPage     = "/main"
	Game645Page  = "/olotto/game/game645.do"
	SessionToken = "JSESSIONID"
)

type rsaKeyResponse struct {
	Data *struct {
		RsaModulus     string `json:"rsaModulus"`
		PublicExponent string `json:"publicExponent"`
	} `json:"data"`
}

// Login authenticates the session. the password only lives for the
// duration of this call.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	err := c.login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return err
	}
	return nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	res, err := c.Request(ctx, Request{URL: "/"})
	if err != nil {
		return fmt.Errorf("landing page: %w", err)
	}
	slog.DebugContext(ctx, "landing page", "status", res.StatusCode())
	if strings.Contains(FinalURL(res), "index_check.html") {
		return ErrServiceUnavailable
	}

	res, err = c.Request(ctx, Request{URL: LoginPage})
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}
	slog.DebugContext(ctx, "login page", "status", res.StatusCode())

	res, err = c.Request(ctx, Request{
		URL: RsaKeyPath,
		Headers: map[string]string{
			"Accept":           "application/json",
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          c.URL(LoginPage),
		},
	})
	if err != nil {
		return fmt.Errorf("rsa key: %w", err)
	}
	var keyRes rsaKeyResponse
	err = DecodeJSON(res, &keyRes)
	if err != nil {
		slog.WarnContext(ctx, "rsa key response is not json", "err", err)
		return ErrKeyUnavailable
	}
	if keyRes.Data == nil || keyRes.Data.RsaModulus == "" || keyRes.Data.PublicExponent == "" {
		return ErrKeyUnavailable
	}
	slog.DebugContext(ctx, "rsa key received", "modulus_len", len(keyRes.Data.RsaModulus))

	key, err := publicKey(keyRes.Data.RsaModulus, keyRes.Data.PublicExponent)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrKeyUnavailable, err.Error())
	}
	encUsername, err := encrypt(key, username)
	if err != nil {
		return fmt.Errorf("encrypt username: %w", err)
	}
	encPassword, err := encrypt(key, password)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	res, err = c.Request(ctx, Request{
		Method: http.MethodPost,
		URL:    LoginPath,
		Form: map[string]string{
			"userId":       encUsername,
			"userPswdEncn": encPassword,
			"inpUserId":    username,
		},
		Headers: map[string]string{
			"Origin":  c.baseURL.String(),
			"Referer": c.URL(LoginPage),
		},
	})
	if err != nil {
		return fmt.Errorf("login submit: %w", err)
	}
	finalURL := FinalURL(res)
	slog.DebugContext(ctx, "login response", "status", res.StatusCode(), "url", finalURL)

	if res.StatusCode() != 200 || !strings.Contains(finalURL, "loginSuccess") {
		authErr := &AuthError{Status: res.StatusCode(), URL: finalURL}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
		if err == nil {
			button := doc.Find("a.btn_common")
			if button.Length() > 0 {
				authErr.BadCredentials = true
				message := doc.Find(".login-error, .error_msg, p.txt").First()
				if message.Length() > 0 {
					authErr.Reason = htmlutil.CollapseWhitespace(message.Text())
				}
			}
		}
		return authErr
	}
	slog.InfoContext(ctx, "login succeeded")

	res, err = c.Request(ctx, Request{URL: MainPage})
	if err != nil {
		return fmt.Errorf("main page: %w", err)
	}
	slog.DebugContext(ctx, "main page", "status", res.StatusCode())

	// the purchase subdomain hands out its own session cookie
	res, err = c.Request(ctx, Request{URL: c.GameURL(Game645Page)})
	if err != nil {
		return fmt.Errorf("game page: %w", err)
	}
	slog.DebugContext(ctx, "game page", "status", res.StatusCode())

	if !c.HasCookie(SessionToken) {
		slog.WarnContext(ctx, "JSESSIONID was not acquired from the purchase domain")
	}
	return nil
}
