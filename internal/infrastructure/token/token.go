package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/infrastructure"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

const separator = "."

// Codec signs and verifies compact bearer tokens of the form
// base64(payload json) + "." + base64(hmac-sha256 signature). Tokens
// are stateless: there is no revocation list, a minted token stays
// valid until its expiry unless the secret rotates.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ infrastructure.TokenCodec = (*Codec)(nil)

type payload struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	IssuedAt  int64     `json:"issued_at"`
	ExpiresAt int64     `json:"expires_at"`
}

func New(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Codec) Mint(userID uuid.UUID, username string) (string, error) {
	now := c.now()

	b, err := json.Marshal(payload{
		UserID:    userID,
		Username:  username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("Codec - Mint - json.Marshal: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(b)

	return encoded + separator + c.sign(encoded), nil
}

// Verify fails closed: malformed, truncated, mis-signed and expired
// tokens all collapse to errs.ErrInvalidToken so callers cannot tell
// the failure modes apart.
func (c *Codec) Verify(token string) (*infrastructure.TokenIdentity, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 2 {
		return nil, errs.ErrInvalidToken
	}

	encoded, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(c.sign(encoded))) {
		return nil, errs.ErrInvalidToken
	}

	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errs.ErrInvalidToken
	}

	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, errs.ErrInvalidToken
	}

	if c.now().Unix() > p.ExpiresAt {
		return nil, errs.ErrInvalidToken
	}

	return &infrastructure.TokenIdentity{
		UserID:    p.UserID,
		Username:  p.Username,
		IssuedAt:  time.Unix(p.IssuedAt, 0),
		ExpiresAt: time.Unix(p.ExpiresAt, 0),
	}, nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
