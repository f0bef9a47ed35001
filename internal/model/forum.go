// Package model defines the records exchanged with the forum backend.
//
// The backend owns every entity. The structs here mirror its JSON (snake_case
// keys, optional fields as pointers or omitempty) so they can be decoded
// straight off the wire and re-encoded to browsers unchanged.
package model

// Topic is a forum thread root post.
type Topic struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	UserID       *int64     `json:"user_id"`
	CategoryID   int64      `json:"category_id,omitempty"`
	CreatedAt    Timestamp  `json:"created_at"`
	UpdatedAt    Timestamp  `json:"updated_at"`
	ViewCount    int        `json:"view_count"`
	ReplyCount   int        `json:"reply_count"`
	LikeCount    int        `json:"like_count"`
	DislikeCount int        `json:"dislike_count"`
	SaveCount    int        `json:"save_count"`
	IsPinned     bool       `json:"is_pinned"`
	IsLocked     bool       `json:"is_locked"`
	IsHighlight  bool       `json:"is_highlighted,omitempty"`
	LastReplyAt  *Timestamp `json:"last_reply_at,omitempty"`
	Tags         []string   `json:"tags"`
	Files        []string   `json:"files"`
	Author       *User      `json:"author,omitempty"`
	Category     *Category  `json:"category,omitempty"`
}

// AuthorID returns the topic author's id, or 0 when the topic is anonymous.
func (t *Topic) AuthorID() int64 {
	if t.UserID == nil {
		return 0
	}
	return *t.UserID
}

// Reply is a response attached to a topic.
type Reply struct {
	ID        int64     `json:"id"`
	TopicID   int64     `json:"topic_id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
	LikeCount int       `json:"like_count"`
	Author    *User     `json:"author,omitempty"`
	Media     []Media   `json:"media,omitempty"`
}

// Category groups topics. Color is whatever the backend sends; the UI colour
// class is assigned separately per session.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// Media is a file attached to a topic or to one of its replies.
type Media struct {
	ID           int64  `json:"id"`
	TopicID      int64  `json:"topic_id"`
	ReplyID      *int64 `json:"reply_id,omitempty"`
	FilePath     string `json:"file_path"`
	FileName     string `json:"file_name"`
	FileType     string `json:"file_type"`
	FileSize     *int64 `json:"file_size,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Upload is a file forwarded to the backend in a multipart request.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// NewTopic is the input for creating a topic.
type NewTopic struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	CategoryID int64    `json:"category_id"`
	Files      []Upload `json:"-"`
}

// LikeTarget says what kind of post a like applies to.
type LikeTarget string

const (
	LikeTopic LikeTarget = "topic"
	LikeReply LikeTarget = "reply"
)
