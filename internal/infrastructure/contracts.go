package infrastructure

import (
	"time"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/dto"
)

type (
	// TokenCodec mints and verifies the self-contained bearer tokens.
	TokenCodec interface {
		Mint(userID uuid.UUID, username string) (string, error)
		Verify(token string) (*TokenIdentity, error)
	}

	// ThumbnailProcessor decodes an uploaded image and derives the
	// bounded thumbnail.
	ThumbnailProcessor interface {
		Process(data []byte) (*dto.ProcessedImage, error)
	}
)

// TokenIdentity is the verified payload of a bearer token.
type TokenIdentity struct {
	UserID    uuid.UUID
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
