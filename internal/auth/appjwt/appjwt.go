// Package appjwt mints the short-lived RS256 assertion that authenticates
// a GitHub App identity.
package appjwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"repocomply/internal/auth/pemutil"
	dErrors "repocomply/pkg/domain-errors"
)

const (
	// clockSkew is subtracted from issued-at so assertions survive minor
	// clock drift between us and GitHub.
	clockSkew = 60 * time.Second
	// assertionTTL stays under GitHub's 10-minute ceiling.
	assertionTTL = 9 * time.Minute
)

// Minter signs App assertions. The zero value is not usable; construct with
// NewMinter.
type Minter struct {
	now func() time.Time
}

type Option func(*Minter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Minter) {
		m.now = now
	}
}

func NewMinter(opts ...Option) *Minter {
	m := &Minter{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mint produces a signed assertion for the App: issuer is the App id,
// issued-at is backdated by the skew tolerance, expiry is 9 minutes out.
// No other claims are set. The key is normalized to PKCS#8 before import;
// a key that cannot be imported is a crypto error.
func (m *Minter) Mint(appID, privateKeyPEM string) (string, error) {
	normalized, err := pemutil.Normalize(privateKeyPEM)
	if err != nil {
		return "", err
	}

	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return "", dErrors.New(dErrors.CodeCrypto, "private key is not valid PEM")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "failed to import private key")
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return "", dErrors.New(dErrors.CodeCrypto, "private key is not an RSA key")
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-clockSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(rsaKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "failed to sign app assertion")
	}
	return signed, nil
}
