package auth

import (
	"crypto/rand"
	"math/big"
	"time"
)

const (
	tokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewToken returns a fresh opaque session token: 32 characters drawn
// uniformly from [A-Za-z0-9] using crypto/rand. Tokens carry no embedded
// claims; they only mean something because a Login entry stores them.
func NewToken() string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, tokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process has no usable
			// entropy source; nothing sensible can continue.
			panic(err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf)
}

// NewLogin builds a login entry with a fresh token for the given source
// address and authentication method name.
func NewLogin(ip string, at time.Time, method string) Login {
	return Login{
		IP:         ip,
		OccurredAt: at.UTC(),
		Method:     method,
		Token:      NewToken(),
	}
}
