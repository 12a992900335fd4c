package blog

import "errors"

var (
	ErrMissingFrontmatter  = errors.New("post is missing frontmatter")
	ErrUnclosedFrontmatter = errors.New("invalid frontmatter: missing closing delimiter")
	ErrInvalidFrontmatter  = errors.New("invalid frontmatter")
	ErrMissingTitle        = errors.New("frontmatter title is required")
	ErrMissingDate         = errors.New("frontmatter date is required")
	ErrInvalidDate         = errors.New("frontmatter date must be YYYY-MM-DD or RFC 3339")
	ErrInvalidSlug         = errors.New("invalid post slug")
)
