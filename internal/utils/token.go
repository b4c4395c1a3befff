package utils

import "crypto/rand"

// tokenAlphabet is the character set for invite tokens: 62 alphanumeric
// characters, matching the token format invites are distributed with.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// InviteTokenLength is the length of every generated invite token.  At 32
// characters over a 62-symbol alphabet a token carries ~190 bits of
// entropy, which is what makes the token usable as the sole external
// identifier.
const InviteTokenLength = 32

// NewInviteToken returns a cryptographically secure random token of
// InviteTokenLength alphanumeric characters.  Uniqueness is not checked
// here; the unique constraint on invites.token is the authority, and a
// collision surfaces as an insert failure rather than a silent retry.
func NewInviteToken() (string, error) {
    out := make([]byte, 0, InviteTokenLength)
    buf := make([]byte, InviteTokenLength)
    for len(out) < InviteTokenLength {
        if _, err := rand.Read(buf); err != nil {
            return "", err
        }
        for _, b := range buf {
            // Reject bytes outside the largest multiple of the alphabet
            // size so the distribution over characters stays uniform.
            if b >= byte(248) { // 248 = 4 * 62
                continue
            }
            out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
            if len(out) == InviteTokenLength {
                break
            }
        }
    }
    return string(out), nil
}
