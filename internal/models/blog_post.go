package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// BlogPost is an article managed from the admin dashboard. Slug is unique across
// all posts and is enforced by the unique index.
type BlogPost struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	Title           string     `json:"title" gorm:"not null"`
	Slug            string     `json:"slug" gorm:"uniqueIndex;not null"`
	Content         string     `json:"content" gorm:"type:text"`
	Excerpt         string     `json:"excerpt"`
	Status          PostStatus `json:"status" gorm:"index;not null"`
	Tags            StringList `json:"tags"`
	FeaturedImage   string     `json:"featuredImage"`
	Author          string     `json:"author"`
	MetaTitle       string     `json:"metaTitle"`
	MetaDescription string     `json:"metaDescription"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (p *BlogPost) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// IsPublished reports whether the post is visible on the public site.
func (p BlogPost) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// SEOTitle falls back to the post title when no meta title is set.
func (p BlogPost) SEOTitle() string {
	if p.MetaTitle != "" {
		return p.MetaTitle
	}
	return p.Title
}

// SEODescription falls back to the excerpt when no meta description is set.
func (p BlogPost) SEODescription() string {
	if p.MetaDescription != "" {
		return p.MetaDescription
	}
	return p.Excerpt
}
