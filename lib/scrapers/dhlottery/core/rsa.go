package core

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// publicKey builds the login key from the hex modulus and exponent the
// site hands out per login attempt.
func publicKey(modulusHex, exponentHex string) (*rsa.PublicKey, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(modulusHex), 16)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("invalid rsa modulus")
	}
	e, ok := new(big.Int).SetString(strings.TrimSpace(exponentHex), 16)
	if !ok || !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("invalid rsa exponent")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// encrypt is PKCS#1 v1.5 with the result hex encoded.
func encrypt(key *rsa.PublicKey, plain string) (string, error) {
	out, err := rsa.EncryptPKCS1v15(rand.Reader, key, []byte(plain))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}
