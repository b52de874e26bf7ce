// Package richtext turns authored description text into safe HTML and short plain excerpts.
package richtext

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

// Render converts markdown-flavoured text to sanitized HTML. Plain text with line
// breaks renders as paragraphs with <br>.
func (r *Renderer) Render(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		log.Debugf("Failed to render rich text, escaping instead: %v", err)
		return template.HTML(template.HTMLEscapeString(src))
	}

	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

var spaces = regexp.MustCompile(`\s+`)

// Excerpt returns the visible text of rendered HTML collapsed to one line and cut to
// at most max runes, ending with an ellipsis when cut.
func Excerpt(h template.HTML, max int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(h)))
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(spaces.ReplaceAllString(doc.Text(), " "))
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := strings.TrimRight(string(runes[:max-1]), " ,;:.")
	return cut + "…"
}

// Excerpt renders src and returns its plain-text excerpt.
func (r *Renderer) Excerpt(src string, max int) string {
	return Excerpt(r.Render(src), max)
}

var youTubeID = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeEmbed returns the embeddable player URL for a YouTube link.
func YouTubeEmbed(videoURL string) (string, bool) {
	m := youTubeID.FindStringSubmatch(strings.TrimSpace(videoURL))
	if len(m) < 3 || len(m[2]) != 11 {
		return "", false
	}
	return "https://www.youtube.com/embed/" + m[2], true
}
