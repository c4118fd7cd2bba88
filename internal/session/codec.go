package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
)

// ErrCorrupt marks a stored value that cannot be turned back into a session.
var ErrCorrupt = errors.New("session: corrupt stored value")

// Codec converts a session to and from its stored form.
type Codec interface {
	Encode(u *models.User) ([]byte, error)
	Decode(data []byte) (*models.User, error)
}

// JSONCodec stores the session as a plain JSON object.
type JSONCodec struct{}

func (JSONCodec) Encode(u *models.User) ([]byte, error) {
	return json.Marshal(u)
}

func (JSONCodec) Decode(data []byte) (*models.User, error) {
	u, err := models.ParseUser(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return u, nil
}

const sessionClaim = "session"

// SignedCodec stores the session JSON inside an HS256 token, so edits made to
// the stored value outside the client are detected on load.
type SignedCodec struct {
	signer *auth.Signer
	ttl    time.Duration
}

func NewSignedCodec(signer *auth.Signer, ttl time.Duration) *SignedCodec {
	return &SignedCodec{signer: signer, ttl: ttl}
}

func (c *SignedCodec) Encode(u *models.User) ([]byte, error) {
	payload, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	token, err := c.signer.Sign(strconv.FormatInt(u.UserID, 10), map[string]any{
		sessionClaim: string(payload),
	}, c.ttl)
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

func (c *SignedCodec) Decode(data []byte) (*models.User, error) {
	claims, err := c.signer.Verify(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	payload, ok := claims[sessionClaim].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s claim", ErrCorrupt, sessionClaim)
	}
	return JSONCodec{}.Decode([]byte(payload))
}
