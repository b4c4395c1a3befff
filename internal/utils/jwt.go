package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA‑256 hashing for session token denylisting
    "encoding/hex"  // hex encoding of hash digests
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// CapabilityAdmin is the capability claim carried by admin session tokens.
// The middleware checks for this value rather than a user identity: the
// system has a single shared credential and no per-admin accounts, so a
// capability is all a session can assert.
const CapabilityAdmin = "admin"

// SessionToken represents a signed HS256 JWT proving an admin session,
// along with its expiry.  The Token field contains the JWT string.  Exp
// stores the expiration timestamp as a time.Time.  The token is presented
// in the Authorization header on admin endpoints.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT asserting the admin
// capability.  It takes the signing secret and a TTL in minutes and
// returns a SessionToken containing the signed token and its expiration
// time.  The JWT includes the capability claim (cap), expiration (exp)
// and issued at (iat); there is no subject because admin sessions are
// anonymous.
func NewSessionToken(secret string, ttlMin int) (SessionToken, error) {
    // Calculate the expiration time by adding the TTL to the current UTC time.
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "cap": CapabilityAdmin,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    // Sign the token with the provided secret and obtain the string form.  If
    // signing fails, return the error and a zero SessionToken.
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// HashSessionToken returns the SHA‑256 hash of a raw session token as a
// hex string.  Logout stores only this hash in the redis denylist so a
// dump of denylist keys cannot be replayed as live tokens.
func HashSessionToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
