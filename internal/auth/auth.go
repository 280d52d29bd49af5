// Package auth validates the connect-time bearer token and enforces
// project scoping (spec §6 "Authentication (optional)"). Grounded on the
// teacher's AuthService.GenerateJWT/VerifyJWT (auth.go), trimmed to the
// stateless claim shape this engine needs: no session store, no user
// database, just issuer/audience/project-scope validation against a
// shared secret.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/helixforge/codemill/internal/engineerr"
)

// Claims is the token payload this engine recognizes.
type Claims struct {
	jwt.RegisteredClaims
	Project string `json:"project,omitempty"`
}

// Validator checks bearer tokens against a shared secret with configurable
// issuer/audience (spec §6).
type Validator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewValidator(secret, issuer, audience string) *Validator {
	return &Validator{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Issue mints a token scoped to project (empty means unscoped), grounded on
// the teacher's GenerateJWT signing convention (HS256, exp/iat claims).
func (v *Validator) Issue(subject, project string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			Audience:  jwt.ClaimStrings{v.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Project: project,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", engineerr.Wrap(err, engineerr.Internal, "failed to sign token")
	}
	return signed, nil
}

// Validate parses and verifies tokenString, then checks it against
// requestedProject: a token scoped to one project is rejected for any
// other (spec §6: "A token may be scoped to one project; in that case
// initialize with a different project is rejected").
func (v *Validator) Validate(tokenString, requestedProject string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.PermissionDenied, "invalid bearer token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, engineerr.New(engineerr.PermissionDenied, "invalid bearer token")
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, engineerr.New(engineerr.PermissionDenied, "token issuer %q does not match %q", claims.Issuer, v.issuer)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, engineerr.New(engineerr.PermissionDenied, "token audience does not include %q", v.audience)
	}
	if claims.Project != "" && requestedProject != "" && claims.Project != requestedProject {
		return nil, engineerr.New(engineerr.PermissionDenied,
			"token scoped to project %q, rejected for %q", claims.Project, requestedProject)
	}
	return claims, nil
}
