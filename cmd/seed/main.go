package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/database"
	"github.com/josecyberpro/site/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	blogs := services.NewBlogService(db)
	for _, in := range samplePosts() {
		post, err := blogs.Create(in)
		switch {
		case errors.Is(err, services.ErrSlugConflict):
			fmt.Printf("  Post already exists: %s\n", in.Slug)
		case err != nil:
			log.Printf("Failed to seed post %s: %v", in.Slug, err)
		default:
			fmt.Printf("✓ Created %s post: %s\n", post.Status, post.Slug)
		}
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
}

func samplePosts() []services.CreatePostInput {
	security := `Most small business sites are compromised through outdated plugins and weak admin passwords.

## Keep software current

Apply CMS and plugin updates as soon as they are released.

## Lock down the admin area

Use long unique passwords and restrict the login page where you can.

## Check your headers

A Content-Security-Policy and HSTS header close off whole classes of attacks.
`
	seo := `Search engines reward fast, well structured pages.

## Titles and descriptions

Every page needs a unique title and a meta description that matches its content.

## Page speed

Compress images and defer scripts that are not needed for the first paint.
`
	draft := "Notes for an upcoming post on accessibility audits.\n"

	return []services.CreatePostInput{
		{
			Title:           "Five Security Checks Every Small Business Site Needs",
			Slug:            "five-security-checks",
			Content:         &security,
			Excerpt:         "Quick wins that close the most common holes.",
			Status:          "published",
			Tags:            []string{"Security", "WordPress"},
			MetaDescription: "Five practical security checks for small business websites.",
		},
		{
			Title:   "On-Page SEO Basics",
			Slug:    "on-page-seo-basics",
			Content: &seo,
			Excerpt: "What to fix before buying any SEO tool.",
			Status:  "published",
			Tags:    []string{"SEO", "Performance"},
		},
		{
			Title:   "Accessibility Audits (draft)",
			Slug:    "accessibility-audits",
			Content: &draft,
			Tags:    []string{"Accessibility"},
		},
	}
}
