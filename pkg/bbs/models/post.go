package models

import "time"

// Post is a thread root (ReplyTo == nil) or a reply to a root.
//
// Threads are exactly one level deep: ReplyTo always references a post whose
// own ReplyTo is nil.
type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Board     string    `gorm:"not null;index:idx_posts_board_root;size:64" json:"board"`
	Author    string    `gorm:"not null;size:255" json:"author"`
	Subject   *string   `gorm:"size:255" json:"subject,omitempty"`
	Body      string    `gorm:"not null" json:"body"`
	ReplyTo   *uint     `gorm:"index:idx_posts_board_root" json:"reply_to,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName returns the table name for Post.
func (Post) TableName() string {
	return "posts"
}

// IsRoot reports whether the post starts a thread.
func (p *Post) IsRoot() bool {
	return p.ReplyTo == nil
}

// SubjectOrEmpty returns the subject, or "" for replies and subjectless roots.
func (p *Post) SubjectOrEmpty() string {
	if p.Subject == nil {
		return ""
	}
	return *p.Subject
}
