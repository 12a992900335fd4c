package blog

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/akeren/lingo-site/pkg/constants"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

const (
	wordsPerMinute   = 200
	maxExcerptLength = 160
	defaultAuthor    = "The Lingo Team"
)

var (
	slugPattern      = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9\-_]*$`)
	paragraphPattern = regexp.MustCompile(`(?s)<p>(.*?)</p>`)
	dateLayouts      = []string{constants.DateFormat, time.RFC3339}
)

// Renderer turns post files into Post records. It is safe for concurrent use.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	plainText *bluemonday.Policy
}

func NewRenderer() *Renderer {
	markdown := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Raw HTML is let through here and cleaned by the sanitizer.
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	sanitizer.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	sanitizer.AllowAttrs("checked", "disabled").OnElements("input")

	return &Renderer{
		markdown:  markdown,
		sanitizer: sanitizer,
		plainText: bluemonday.StripTagsPolicy(),
	}
}

func IsValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Parse builds a post from the raw file content. The slug is the file name without extension.
func (r *Renderer) Parse(slug string, content []byte) (*Post, error) {
	if !IsValidSlug(slug) {
		return nil, ErrInvalidSlug
	}

	header, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	if strings.TrimSpace(fm.Date) == "" {
		return nil, ErrMissingDate
	}

	date, err := parseDate(fm.Date)
	if err != nil {
		return nil, err
	}

	var updated *time.Time
	if strings.TrimSpace(fm.Updated) != "" {
		parsed, err := parseDate(fm.Updated)
		if err != nil {
			return nil, fmt.Errorf("updated: %w", err)
		}
		updated = &parsed
	}

	rendered, err := r.Render(body)
	if err != nil {
		return nil, err
	}

	words := CountWords(body)
	minutes := ReadingTimeMinutes(words)

	excerpt := strings.TrimSpace(fm.Excerpt)
	if excerpt == "" {
		excerpt = r.excerptFromHTML(rendered)
	}

	author := strings.TrimSpace(fm.Author)
	if author == "" {
		author = defaultAuthor
	}

	return &Post{
		PostSummary: PostSummary{
			Slug:               strings.ToLower(slug),
			Title:              title,
			Author:             author,
			Date:               date,
			Updated:            updated,
			Excerpt:            excerpt,
			Tags:               normalizeTags(fm.Tags),
			CoverImage:         strings.TrimSpace(fm.CoverImage),
			Draft:              fm.Draft,
			ReadingTimeMinutes: minutes,
			ReadingTime:        fmt.Sprintf("%d min read", minutes),
			WordCount:          words,
		},
		HTML: rendered,
	}, nil
}

// Render converts markdown to sanitized HTML.
func (r *Renderer) Render(markdown []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert(markdown, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return r.sanitizer.Sanitize(buf.String()), nil
}

func (r *Renderer) excerptFromHTML(rendered string) string {
	match := paragraphPattern.FindStringSubmatch(rendered)
	if match == nil {
		return ""
	}

	text := html.UnescapeString(r.plainText.Sanitize(match[1]))
	return TruncateOnWord(strings.Join(strings.Fields(text), " "), maxExcerptLength)
}

func splitFrontmatter(content []byte) ([]byte, []byte, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, nil, ErrMissingFrontmatter
	}

	rest := content[4:]
	offset := 0
	for _, line := range bytes.SplitAfter(rest, []byte("\n")) {
		if string(bytes.TrimRight(line, " \t\n")) == "---" {
			return rest[:offset], rest[offset+len(line):], nil
		}
		offset += len(line)
	}

	return nil, nil, ErrUnclosedFrontmatter
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidDate
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, tag)
	}

	return result
}

func CountWords(markdown []byte) int {
	return len(strings.Fields(string(markdown)))
}

// ReadingTimeMinutes rounds up and never returns less than one minute.
func ReadingTimeMinutes(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func TruncateOnWord(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " ,.;:") + "…"
}
