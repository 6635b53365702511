package dto

// UploadImage carries the request side of an upload: the raw bytes plus
// the metadata supplied by the client. Owner identity arrives separately,
// already resolved from a verified token.
type UploadImage struct {
	Data             []byte
	OriginalFileName string
	ContentType      string
	Description      *string
	Category         *string
}

// ProcessedImage is the thumbnail generator's output: the original's
// pixel dimensions and detected format, plus the re-encoded thumbnail.
// ThumbnailFormat is the format the thumbnail bytes were actually
// encoded in; it differs from Format for webp sources.
type ProcessedImage struct {
	Width           int
	Height          int
	Format          string // jpeg, png, gif, webp
	Thumbnail       []byte
	ThumbnailFormat string // jpeg, png, gif
}

// ListImages is a pagination query.
type ListImages struct {
	Page     int
	PageSize int
	Category *string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps the query: page >= 1, page size in [1,100] with 20
// as the default.
func (q *ListImages) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > maxPageSize {
		q.PageSize = defaultPageSize
	}
}
