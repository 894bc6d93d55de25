package web

import (
	"sort"

	"github.com/josecyberpro/site/internal/models"
)

// BlogListData feeds PageBlogList.
type BlogListData struct {
	Posts      []models.BlogPost
	Categories []string
	Active     string
}

// BlogPostData feeds PageBlogPost.
type BlogPostData struct {
	Post    *models.BlogPost
	Article Article
}

// Categories returns the sorted set of tags used across posts.
func Categories(posts []models.BlogPost) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NormalizeCategory maps the "all" chip and an empty value to no filter.
func NormalizeCategory(category string) string {
	if category == "all" {
		return ""
	}
	return category
}

// FilterByCategory keeps posts tagged with category. An empty category keeps all.
func FilterByCategory(posts []models.BlogPost, category string) []models.BlogPost {
	if category == "" {
		return posts
	}
	out := make([]models.BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.Tags.Contains(category) {
			out = append(out, p)
		}
	}
	return out
}
