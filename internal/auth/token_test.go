package auth

import (
	"strings"
	"testing"
	"time"
)

func TestNewTokenShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		tok := NewToken()
		if len(tok) != tokenLength {
			t.Fatalf("expected %d characters, got %d", tokenLength, len(tok))
		}
		for _, r := range tok {
			if !strings.ContainsRune(tokenAlphabet, r) {
				t.Fatalf("token %q contains %q outside the alphabet", tok, r)
			}
		}
		if seen[tok] {
			t.Fatalf("token %q generated twice", tok)
		}
		seen[tok] = true
	}
}

func TestNewLoginCarriesFreshToken(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	l := NewLogin("203.0.113.9", at, "Credentials")

	if l.IP != "203.0.113.9" {
		t.Fatalf("unexpected ip %q", l.IP)
	}
	if l.Method != "Credentials" {
		t.Fatalf("unexpected method %q", l.Method)
	}
	if !l.OccurredAt.Equal(at) || l.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp preserving the instant, got %v", l.OccurredAt)
	}
	if len(l.Token) != tokenLength {
		t.Fatalf("expected a %d-character token, got %q", tokenLength, l.Token)
	}
}
