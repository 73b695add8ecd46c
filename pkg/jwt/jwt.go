package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("no verification key configured")
)

// Claims are the claims read from tokens issued by the identity provider.
// Subject carries the external subject identifier.
type Claims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
}

// DisplayName picks the best human-readable name carried by the token.
func (c *Claims) DisplayName() string {
	switch {
	case strings.TrimSpace(c.Name) != "":
		return strings.TrimSpace(c.Name)
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		return strings.SplitN(c.Email, "@", 2)[0]
	default:
		return ""
	}
}

// Config selects the verification key and the optional claim checks.
type Config struct {
	Secret        string        `mapstructure:"jwt_secret"`
	PublicKeyPEM  string        `mapstructure:"jwt_public_key"`
	PublicKeyFile string        `mapstructure:"jwt_public_key_file"`
	Issuer        string        `mapstructure:"jwt_issuer"`
	Audience      string        `mapstructure:"jwt_audience"`
	Leeway        time.Duration `mapstructure:"jwt_leeway"`
}

// Verifier validates bearer tokens. It accepts HS256 when a shared secret is
// configured and RS256 when an RSA public key is configured.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewVerifier builds a Verifier from cfg.
func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{}

	pemData := cfg.PublicKeyPEM
	if pemData == "" && cfg.PublicKeyFile != "" {
		raw, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key file: %w", err)
		}
		pemData = string(raw)
	}
	if pemData != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		v.publicKey = key
	}
	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
	}
	if v.publicKey == nil && v.secret == nil {
		return nil, ErrMissingKey
	}

	methods := make([]string, 0, 2)
	if v.secret != nil {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if v.publicKey != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// Verify validates tokenString and returns its claims.
// A token without a subject is rejected.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.publicKey == nil {
			return nil, ErrInvalidToken
		}
		return v.publicKey, nil
	default:
		return nil, ErrInvalidToken
	}
}

// SignHS256 issues a token for subject signed with secret. It is meant for
// local development and tests where no identity provider is running.
func SignHS256(secret, subject, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
