package response

type Error struct {
	Error string `json:"error"`
}

type Auth struct {
	Token    string  `json:"token"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

type Validate struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type Image struct {
	ImageID          string  `json:"image_id"`
	FileName         string  `json:"file_name"`
	OriginalFileName string  `json:"original_file_name"`
	URL              string  `json:"url,omitempty"`
	ThumbnailURL     string  `json:"thumbnail_url,omitempty"`
	Size             int64   `json:"size"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	ContentType      string  `json:"content_type"`
	Description      *string `json:"description,omitempty"`
	Category         *string `json:"category,omitempty"`
	UploadTime       string  `json:"upload_time"`
}

type ImageList struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Images   []Image `json:"images"`
}
