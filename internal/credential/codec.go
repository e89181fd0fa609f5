// Package credential encodes and decodes the QR token handed to attendees.
// The token binds a registration to its event so a scan can be verified
// without trusting the scanner.
package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// Delimiter separates the token fields: registrationId|eventId[|signature].
const Delimiter = "|"

// signatureLen is the hex length of the truncated HMAC-SHA256 suffix.
const signatureLen = 16

var (
	// ErrMalformedToken means the input does not match any accepted token
	// shape: wrong delimiter count, empty fields, or a bad signature.
	ErrMalformedToken = errors.New("credential: malformed token")
	// ErrEmptyToken means the input was empty.
	ErrEmptyToken = errors.New("credential: empty token")
)

// Source identifies which of the accepted credential shapes the input took.
type Source int

const (
	// SourceSigned is the current delimited form, registrationId|eventId|sig.
	SourceSigned Source = iota
	// SourcePlain is the unsigned delimited form, registrationId|eventId.
	// Only accepted when the codec has no signing secret.
	SourcePlain
	// SourceLegacyJSON is the old JSON QR payload, kept for badges printed
	// before the delimited format shipped.
	SourceLegacyJSON
	// SourceBareID is a bare registration ID typed at a kiosk; the event is
	// resolved from the store, not the token.
	SourceBareID
)

// Credential is the decoded token: the two logical fields plus which shape
// they arrived in.
type Credential struct {
	RegistrationID string
	EventID        string // empty for SourceBareID
	Source         Source
}

// legacyPayload matches the JSON the original QR generator embedded. Both
// key spellings occur in the wild.
type legacyPayload struct {
	ID              string `json:"id"`
	RegistrationID  string `json:"registrationId"`
	Event           string `json:"event"`
	EventID         string `json:"eventId"`
}

// Codec mints and parses credentials. With a secret it signs tokens with a
// truncated HMAC-SHA256 suffix; without one it emits the plain two-field
// form. Pure; safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec. secret may be empty to disable signing.
func NewCodec(secret string) *Codec {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Codec{secret: key}
}

// Encode builds the token for a registration. Deterministic: the same pair
// always yields the same token.
func (c *Codec) Encode(registrationID, eventID string) string {
	body := registrationID + Delimiter + eventID
	if len(c.secret) == 0 {
		return body
	}
	return body + Delimiter + c.sign(body)
}

// Decode parses any of the accepted credential shapes. It never touches the
// store; callers resolve SourceBareID (and legacy tokens) against persisted
// registrations afterwards.
func (c *Codec) Decode(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, ErrEmptyToken
	}

	if strings.Contains(token, Delimiter) {
		return c.decodeDelimited(token)
	}

	if strings.HasPrefix(token, "{") {
		return decodeLegacyJSON(token)
	}

	if !isIdentifier(token) {
		return Credential{}, ErrMalformedToken
	}
	return Credential{RegistrationID: token, Source: SourceBareID}, nil
}

func (c *Codec) decodeDelimited(token string) (Credential, error) {
	parts := strings.Split(token, Delimiter)
	switch len(parts) {
	case 2:
		// Unsigned tokens are only valid when signing is off; once a secret
		// is configured they are treated as forgeries.
		if len(c.secret) != 0 {
			return Credential{}, ErrMalformedToken
		}
		if parts[0] == "" || parts[1] == "" {
			return Credential{}, ErrMalformedToken
		}
		return Credential{RegistrationID: parts[0], EventID: parts[1], Source: SourcePlain}, nil
	case 3:
		if len(c.secret) == 0 {
			return Credential{}, ErrMalformedToken
		}
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Credential{}, ErrMalformedToken
		}
		body := parts[0] + Delimiter + parts[1]
		if !hmac.Equal([]byte(c.sign(body)), []byte(parts[2])) {
			return Credential{}, ErrMalformedToken
		}
		return Credential{RegistrationID: parts[0], EventID: parts[1], Source: SourceSigned}, nil
	default:
		return Credential{}, ErrMalformedToken
	}
}

func decodeLegacyJSON(token string) (Credential, error) {
	var p legacyPayload
	if err := json.Unmarshal([]byte(token), &p); err != nil {
		return Credential{}, ErrMalformedToken
	}
	regID := p.RegistrationID
	if regID == "" {
		regID = p.ID
	}
	eventID := p.EventID
	if eventID == "" {
		eventID = p.Event
	}
	if regID == "" || eventID == "" {
		return Credential{}, ErrMalformedToken
	}
	return Credential{RegistrationID: regID, EventID: eventID, Source: SourceLegacyJSON}, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLen]
}

// isIdentifier reports whether s looks like a registration ID: strictly
// alphanumeric, at least 8 characters. Anything looser (hyphens, punctuation)
// must be rejected here rather than looked up.
func isIdentifier(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
