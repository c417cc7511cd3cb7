package auth

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/freeler-client/internal/domain"
)

var unverifiedParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims reads the payload of a compact token without verifying its
// signature, algorithm or expiry. It returns nil only when the token does not
// have three segments or a segment is not base64url JSON. Claims of an
// unexpected type are left empty. The result is advisory and must not gate
// anything the server does not also check.
func DecodeClaims(token string) *Claims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	var header map[string]any
	if !decodeSegment(parts[0], &header) {
		return nil
	}
	var payload jwt.MapClaims
	if !decodeSegment(parts[1], &payload) || payload == nil {
		return nil
	}
	return claimsFromMap(payload)
}

func decodeSegment(seg string, dest any) bool {
	raw, err := unverifiedParser.DecodeSegment(seg)
	if err != nil {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dest) == nil
}

func claimsFromMap(m jwt.MapClaims) *Claims {
	c := &Claims{
		SessionType: domain.SessionType(stringClaim(m, "sessionType")),
		UserID:      idClaim(m, "userId"),
		Role:        stringClaim(m, "role"),
		CompanyID:   idClaim(m, "companyId"),
		Email:       stringClaim(m, "email"),
	}
	c.Subject = idClaim(m, "sub").String()
	if exp, err := m.GetExpirationTime(); err == nil {
		c.ExpiresAt = exp
	}
	if iat, err := m.GetIssuedAt(); err == nil {
		c.IssuedAt = iat
	}
	return c
}

func stringClaim(m jwt.MapClaims, key string) string {
	s, _ := m[key].(string)
	return s
}

func idClaim(m jwt.MapClaims, key string) domain.ID {
	switch v := m[key].(type) {
	case string:
		return domain.ID(v)
	case json.Number:
		return domain.ID(v.String())
	default:
		return ""
	}
}

// SubjectID returns the user identifier carried by the claims.
func (c *Claims) SubjectID() string {
	if c == nil {
		return ""
	}
	if !c.UserID.IsZero() {
		return c.UserID.String()
	}
	return c.Subject
}

// ExpiresWithin reports whether the token claims expire within d of now.
// Tokens without an exp claim never report expiry.
func (c *Claims) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Add(d).Before(c.ExpiresAt.Time)
}
