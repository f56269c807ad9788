package domain

import "time"

// ContentKind is a type of generated content
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindCaption ContentKind = "caption"
	KindStory   ContentKind = "story"
	KindIdeas   ContentKind = "ideas"
	KindStyle   ContentKind = "style_analysis"
)

// Generation is one produced artifact, kept in history
type Generation struct {
	ID        int64
	UserID    int64
	Kind      ContentKind
	Prompt    string
	Content   string
	CreatedAt time.Time
}

// SavedContent is an artifact the user explicitly kept
type SavedContent struct {
	ID        int64
	UserID    int64
	Kind      ContentKind
	Prompt    string
	Content   string
	CreatedAt time.Time
}
