// Package securelink mints and validates the short-lived tokens that gate
// the candidate-facing pages. A token binds one application id to one
// purpose and an expiry; it is not a session credential and carries no
// role or privilege beyond that single flow.
//
// Tokens are self-describing (HMAC-signed payload) and never persisted,
// so there is no server-side revocation list.
package securelink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Purpose scopes a token to one candidate-facing flow.
type Purpose string

const (
	// PurposeSchedule authorizes viewing availability and confirming a slot.
	PurposeSchedule Purpose = "schedule"
	// PurposeFinalize authorizes the one-time hire/decline confirmation.
	PurposeFinalize Purpose = "finalize"
)

// Validity windows per purpose.
const (
	ScheduleTokenTTL = 24 * time.Hour
	FinalizeTokenTTL = 72 * time.Hour
)

// ErrTokenInvalid covers every unusable token: malformed, tampered,
// expired, or bound to a different application or purpose. Callers must
// treat it as "link not usable" — never partially honor the request.
var ErrTokenInvalid = errors.New("token invalid")

type payload struct {
	ApplicationID string  `json:"app_id"`
	Purpose       Purpose `json:"purpose"`
	Nonce         string  `json:"nonce"`
	Iat           int64   `json:"iat"`
	Exp           int64   `json:"exp"`
}

// Issuer signs and validates tokens with a shared HMAC-SHA256 secret.
type Issuer struct {
	secret []byte
}

// NewIssuer returns an Issuer using the given signing secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue mints a token bound to applicationID and purpose, valid for the
// purpose's fixed window starting at now.
func (i *Issuer) Issue(applicationID string, purpose Purpose, now time.Time) (string, error) {
	ttl := ScheduleTokenTTL
	if purpose == PurposeFinalize {
		ttl = FinalizeTokenTTL
	}
	p := payload{
		ApplicationID: applicationID,
		Purpose:       purpose,
		Nonce:         uuid.New().String(),
		Iat:           now.UTC().Unix(),
		Exp:           now.UTC().Add(ttl).Unix(),
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding.EncodeToString(body)
	return enc + "." + sign(enc, i.secret), nil
}

// Validate checks that token was minted by this issuer for applicationID
// and purpose and has not expired at now. It is a pure function of its
// inputs plus the issuer secret.
func (i *Issuer) Validate(token, applicationID string, purpose Purpose, now time.Time) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return ErrTokenInvalid
	}
	if !hmac.Equal([]byte(parts[1]), []byte(sign(parts[0], i.secret))) {
		return ErrTokenInvalid
	}
	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrTokenInvalid
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return ErrTokenInvalid
	}
	if p.ApplicationID != applicationID || p.Purpose != purpose {
		return ErrTokenInvalid
	}
	if now.UTC().Unix() > p.Exp {
		return ErrTokenInvalid
	}
	return nil
}

func sign(input string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
