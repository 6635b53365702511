package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileName is the storage key: immutable once assigned, unique, and
// shared with the thumbnail blob through ThumbnailKey.
type Image struct {
	ID uuid.UUID `json:"id"`

	FileName         string `json:"file_name"`
	OriginalFileName string `json:"original_file_name"`
	FileExtension    string `json:"file_extension"`

	FileSize int64  `json:"file_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`

	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`

	UserID     uuid.UUID `json:"user_id"`
	UploadTime time.Time `json:"upload_time"`
	IsPublic   bool      `json:"is_public"`
}

const thumbnailPrefix = "thumb_"

// ThumbnailKey derives the thumbnail blob key from the storage key.
func (i *Image) ThumbnailKey() string {
	return ThumbnailKeyFor(i.FileName)
}

func ThumbnailKeyFor(fileName string) string {
	return thumbnailPrefix + fileName
}
