package blog

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
)

const defaultRelatedLimit = 3

type BlogService interface {
	// ListPosts returns published posts, newest first.
	ListPosts(ctx context.Context) ([]PostSummary, error)

	// GetPost returns a single post with its rendered body.
	GetPost(ctx context.Context, slug string) (*Post, error)

	// ListTags returns every tag with the number of posts carrying it.
	ListTags(ctx context.Context) ([]TagCount, error)

	// ListPostsByTag returns the posts carrying tag, matched case-insensitively.
	ListPostsByTag(ctx context.Context, tag string) ([]PostSummary, error)

	// RelatedPosts ranks other posts by shared tags, then recency.
	RelatedPosts(ctx context.Context, slug string, limit int) ([]PostSummary, error)

	// Lint parses every content file and reports the ones that fail.
	Lint(ctx context.Context) ([]LintResult, error)
}

type ServiceOptions struct {
	ShowDrafts bool
}

type blogService struct {
	logger     *log.Logger
	repository PostRepository
	options    ServiceOptions
}

func NewBlogService(logger *log.Logger, repository PostRepository, options ServiceOptions) BlogService {
	return &blogService{logger: logger, repository: repository, options: options}
}

func (s *blogService) ListPosts(ctx context.Context) ([]PostSummary, error) {
	posts, err := s.publishedPosts(ctx)
	if err != nil {
		return nil, err
	}

	return summaries(posts), nil
}

func (s *blogService) GetPost(ctx context.Context, slug string) (*Post, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if !IsValidSlug(slug) {
		logger.Info("Rejected blog slug", "slug", slug)
		return nil, apperrors.NewNotFoundError("post not found", ErrInvalidSlug)
	}

	post, err := s.repository.Load(ctx, slug)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("post not found", err)
		}
		if isContentError(err) {
			logger.Warn("Failed to parse blog post", "slug", slug, "error", err)
			return nil, apperrors.NewNotFoundError("post not found", err)
		}
		logger.Error("Failed to load blog post", "slug", slug, "error", err)
		return nil, apperrors.NewInternalServerError("unable to load post", err)
	}

	if post.Draft && !s.options.ShowDrafts {
		return nil, apperrors.NewNotFoundError("post not found", nil)
	}

	return post, nil
}

func (s *blogService) ListTags(ctx context.Context) ([]TagCount, error) {
	posts, err := s.publishedPosts(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*TagCount)
	for _, post := range posts {
		for _, tag := range post.Tags {
			key := strings.ToLower(tag)
			if tc, ok := counts[key]; ok {
				tc.Count++
				continue
			}
			counts[key] = &TagCount{Tag: tag, Count: 1}
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for _, tc := range counts {
		tags = append(tags, *tc)
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return strings.ToLower(tags[i].Tag) < strings.ToLower(tags[j].Tag)
	})

	return tags, nil
}

func (s *blogService) ListPostsByTag(ctx context.Context, tag string) ([]PostSummary, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, apperrors.NewInvalidRequestError("tag is required", nil)
	}

	posts, err := s.publishedPosts(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*Post, 0, len(posts))
	for _, post := range posts {
		if hasTag(post, tag) {
			matching = append(matching, post)
		}
	}

	return summaries(matching), nil
}

func (s *blogService) RelatedPosts(ctx context.Context, slug string, limit int) ([]PostSummary, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	current, err := s.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	posts, err := s.publishedPosts(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		post   *Post
		shared int
	}

	candidates := make([]candidate, 0, len(posts))
	for _, post := range posts {
		if post.Slug == current.Slug {
			continue
		}

		shared := 0
		for _, tag := range current.Tags {
			if hasTag(post, tag) {
				shared++
			}
		}
		candidates = append(candidates, candidate{post: post, shared: shared})
	}

	// publishedPosts is already newest first, so a stable sort keeps recency as the tiebreak.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].shared > candidates[j].shared
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	related := make([]PostSummary, 0, len(candidates))
	for _, c := range candidates {
		related = append(related, c.post.PostSummary)
	}

	return related, nil
}

func (s *blogService) Lint(ctx context.Context) ([]LintResult, error) {
	_, results, err := s.repository.LoadAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalServerError("unable to read blog content", err)
	}

	return results, nil
}

// publishedPosts loads and sorts the visible posts, logging and skipping any that fail to parse.
func (s *blogService) publishedPosts(ctx context.Context) ([]*Post, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	posts, results, err := s.repository.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load blog posts", "error", err)
		return nil, apperrors.NewInternalServerError("unable to read blog content", err)
	}

	for _, result := range results {
		if !result.OK() {
			logger.Warn("Skipping blog post", "file", result.File, "error", result.Error)
		}
	}

	visible := make([]*Post, 0, len(posts))
	for _, post := range posts {
		if post.Draft && !s.options.ShowDrafts {
			continue
		}
		visible = append(visible, post)
	}

	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].Date.Equal(visible[j].Date) {
			return visible[i].Date.After(visible[j].Date)
		}
		return visible[i].Slug < visible[j].Slug
	})

	return visible, nil
}

func summaries(posts []*Post) []PostSummary {
	result := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		result = append(result, post.PostSummary)
	}
	return result
}

func hasTag(post *Post, tag string) bool {
	for _, t := range post.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func isContentError(err error) bool {
	for _, target := range []error{
		ErrMissingFrontmatter,
		ErrUnclosedFrontmatter,
		ErrInvalidFrontmatter,
		ErrMissingTitle,
		ErrMissingDate,
		ErrInvalidDate,
		ErrInvalidSlug,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
