package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

// JWTConfig configures bearer-token authentication for job submission
type JWTConfig struct {
	// Secret is the HS256 signing key. Empty disables authentication.
	Secret string

	// Issuer requires a matching `iss` claim when set.
	Issuer string

	// Leeway allows small clock skew for exp/nbf/iat validation.
	Leeway time.Duration
}

// requireJWT rejects requests without a valid "Authorization: Bearer" token
func requireJWT(cfg JWTConfig, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.Secret), nil
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return func(ctx *fasthttp.RequestCtx) {
		auth := string(ctx.Request.Header.Peek("Authorization"))
		scheme, tokenString, ok := strings.Cut(auth, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			unauthorized(ctx)
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, keyFunc, options...)
		if err != nil || !token.Valid {
			unauthorized(ctx)
			return
		}
		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			ctx.SetUserValue(subjectKey, sub)
		}
		next(ctx)
	}
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="beehive", error="invalid_token"`)
	writeJSONString(ctx, fasthttp.StatusUnauthorized, `{"error":"unauthorized","message":"invalid or missing token"}`)
}

// TokenGenerator issues tokens accepted by the admin server
type TokenGenerator struct {
	secret []byte
	issuer string
}

func NewTokenGenerator(secret, issuer string) *TokenGenerator {
	return &TokenGenerator{secret: []byte(secret), issuer: issuer}
}

// Generate signs a token for subject that expires after expiresIn
func (g *TokenGenerator) Generate(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    g.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
