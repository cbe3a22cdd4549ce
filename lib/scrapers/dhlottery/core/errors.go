package core

import (
	"errors"
	"fmt"
)

var (
	ErrServiceUnavailable = errors.New("동행복권 사이트가 현재 시스템 점검중입니다.")
	ErrKeyUnavailable     = errors.New("RSA 키를 가져올 수 없습니다.")
)

// AuthError is a rejected or unrecognized login.
type AuthError struct {
	// set when the site rendered its error button, i.e. the credentials are wrong
	BadCredentials bool
	// the message the site showed next to the error button, if any
	Reason string
	Status int
	URL    string
}

func (e *AuthError) Error() string {
	if e.BadCredentials {
		if e.Reason != "" {
			return fmt.Sprintf("로그인에 실패했습니다. 아이디 또는 비밀번호를 확인해주세요. (%s)", e.Reason)
		}
		return "로그인에 실패했습니다. 아이디 또는 비밀번호를 확인해주세요."
	}
	return fmt.Sprintf("로그인에 실패했습니다. (Status: %d, URL: %s)", e.Status, e.URL)
}
