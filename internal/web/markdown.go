package web

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	policy     = newPolicy()
	whitespace = regexp.MustCompile(`\s+`)
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// Heading is one table of contents entry.
type Heading struct {
	ID   string
	Text string
}

// Article is a post body ready for the detail page.
type Article struct {
	HTML template.HTML
	TOC  []Heading
}

// AnchorID turns heading text into its anchor: lower-cased, with whitespace
// runs replaced by "-".
func AnchorID(heading string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(heading), "-"))
}

// anchorIDs gives every heading an AnchorID, suffixing repeats with the first
// free -1, -2... so ids never collide, even with headings that end in a number.
type anchorIDs struct {
	seen map[string]int
}

func (a *anchorIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	id := AnchorID(string(value))
	if id == "" {
		id = "section"
	}
	candidate := id
	for n := 1; a.seen[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	a.seen[candidate]++
	return []byte(candidate)
}

func (a *anchorIDs) Put(value []byte) {
	a.seen[string(value)]++
}

// RenderMarkdown converts post content to sanitized HTML and collects the
// level-2 headings for the table of contents.
func RenderMarkdown(content string) (Article, error) {
	src := []byte(content)
	ctx := parser.NewContext(parser.WithIDs(&anchorIDs{seen: map[string]int{}}))
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	var toc []Heading
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		if h.Level == 2 {
			id, _ := h.AttributeString("id")
			idBytes, _ := id.([]byte)
			toc = append(toc, Heading{
				ID:   string(idBytes),
				Text: strings.TrimSpace(string(h.Lines().Value(src))),
			})
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return Article{}, fmt.Errorf("walk markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return Article{}, fmt.Errorf("render markdown: %w", err)
	}
	return Article{
		HTML: template.HTML(policy.SanitizeBytes(buf.Bytes())),
		TOC:  toc,
	}, nil
}
