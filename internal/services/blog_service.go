package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/josecyberpro/site/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrSlugConflict = errors.New("a post with this slug already exists")
	ErrValidation   = errors.New("validation failed")
)

const (
	// DefaultAuthor is used when a post is created or updated without an author.
	DefaultAuthor = "Admin"

	DefaultAdminListLimit  = 50
	DefaultPublicListLimit = 20
	MaxListLimit           = 500
)

// PostQuery filters a post listing. Empty fields do not filter.
type PostQuery struct {
	Status models.PostStatus
	Tag    string
	Limit  int
}

// CreatePostInput carries the fields of a new post. Content is a pointer because
// an empty body is allowed but a missing one is not.
type CreatePostInput struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Content         *string  `json:"content"`
	Excerpt         string   `json:"excerpt"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	FeaturedImage   string   `json:"featuredImage"`
	Author          string   `json:"author"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
}

// UpdatePostInput is a partial update. A nil field is left untouched; a non-nil
// field is applied even when empty (see Update for the rules on empty values).
type UpdatePostInput struct {
	ID              string
	Title           *string
	Slug            *string
	Content         *string
	Excerpt         *string
	Status          *string
	Tags            *[]string
	FeaturedImage   *string
	Author          *string
	MetaTitle       *string
	MetaDescription *string
}

// BlogService owns reads and writes of blog posts.
type BlogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBlogService(db *gorm.DB) *BlogService {
	return &BlogService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// List returns posts newest first.
func (s *BlogService) List(q PostQuery) ([]models.BlogPost, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultAdminListLimit
	}
	query := s.db.Order("created_at desc").Limit(limit)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(blog_posts.tags) WHERE json_each.value = ?)", q.Tag)
	}

	var posts []models.BlogPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListPublished returns the public listing, optionally narrowed to one tag.
func (s *BlogService) ListPublished(tag string, limit int) ([]models.BlogPost, error) {
	return s.List(PostQuery{Status: models.PostStatusPublished, Tag: tag, Limit: limit})
}

// GetByID loads any post, draft or published.
func (s *BlogService) GetByID(id string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug loads a post for the public site. Drafts are reported as
// not found even when the slug matches.
func (s *BlogService) GetPublishedBySlug(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.Where("slug = ? AND status = ?", slug, models.PostStatusPublished).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create inserts a new post. The slug check is the insert itself: the unique
// index rejects duplicates atomically.
func (s *BlogService) Create(in CreatePostInput) (*models.BlogPost, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	if title == "" || slug == "" || in.Content == nil {
		return nil, fmt.Errorf("%w: title, slug, and content are required", ErrValidation)
	}

	status := models.PostStatusDraft
	if in.Status != "" {
		status = models.PostStatus(in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: status must be draft or published", ErrValidation)
		}
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = DefaultAuthor
	}

	now := s.now()
	post := &models.BlogPost{
		Title:           title,
		Slug:            slug,
		Content:         *in.Content,
		Excerpt:         in.Excerpt,
		Status:          status,
		Tags:            normalizeTags(in.Tags),
		FeaturedImage:   in.FeaturedImage,
		Author:          author,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.Create(post).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Update applies a partial update in a single statement. Empty title, slug or
// status are rejected, an empty tag list clears the tags and an empty author
// resets to DefaultAuthor. Moving to a slug held by another post fails with
// ErrSlugConflict; keeping the post's own slug is fine.
func (s *BlogService) Update(in UpdatePostInput) (*models.BlogPost, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: post ID is required", ErrValidation)
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		updates["title"] = title
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug cannot be empty", ErrValidation)
		}
		updates["slug"] = slug
	}
	if in.Status != nil {
		status := models.PostStatus(*in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: status must be draft or published", ErrValidation)
		}
		updates["status"] = status
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Excerpt != nil {
		updates["excerpt"] = *in.Excerpt
	}
	if in.Tags != nil {
		updates["tags"] = normalizeTags(*in.Tags)
	}
	if in.FeaturedImage != nil {
		updates["featured_image"] = *in.FeaturedImage
	}
	if in.Author != nil {
		author := strings.TrimSpace(*in.Author)
		if author == "" {
			author = DefaultAuthor
		}
		updates["author"] = author
	}
	if in.MetaTitle != nil {
		updates["meta_title"] = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		updates["meta_description"] = *in.MetaDescription
	}
	updates["updated_at"] = s.now()

	result := s.db.Model(&models.BlogPost{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrPostNotFound
	}

	return s.GetByID(id)
}

// Delete removes a post permanently.
func (s *BlogService) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: post ID is required", ErrValidation)
	}
	result := s.db.Where("id = ?", id).Delete(&models.BlogPost{})
	if result.Error != nil {
		return fmt.Errorf("delete post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ParseLimit turns a query-string limit into a bounded value. Missing,
// unparsable and non-positive values fall back to def.
func ParseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}

// normalizeTags trims tags and drops blanks and duplicates while keeping order.
func normalizeTags(tags []string) models.StringList {
	out := make(models.StringList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
