package blog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const postExtension = ".md"

type PostRepository interface {
	// LoadAll parses every post file in the content directory. Files that fail to
	// parse, and files whose slug differs only in case from an earlier file, are
	// reported in the returned lint results instead of failing the call.
	// A missing directory yields no posts and no error.
	LoadAll(ctx context.Context) ([]*Post, []LintResult, error)

	// Load parses the post with the given slug. It returns fs.ErrNotExist when no file matches.
	Load(ctx context.Context, slug string) (*Post, error)
}

type fileRepository struct {
	dir      string
	renderer *Renderer
}

func NewFileRepository(dir string, renderer *Renderer) PostRepository {
	return &fileRepository{dir: dir, renderer: renderer}
}

func (r *fileRepository) LoadAll(ctx context.Context) ([]*Post, []LintResult, error) {
	entries, err := r.postEntries()
	if err != nil {
		return nil, nil, err
	}

	posts := make([]*Post, 0, len(entries))
	results := make([]LintResult, 0, len(entries))
	owners := make(map[string]string, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		slug := slugFromFileName(entry.Name())
		result := LintResult{File: filepath.Join(r.dir, entry.Name()), Slug: slug}

		key := strings.ToLower(slug)
		if owner, taken := owners[key]; taken {
			result.Error = fmt.Sprintf("duplicate slug %q, already used by %s", slug, owner)
			results = append(results, result)
			continue
		}
		owners[key] = entry.Name()

		post, err := r.parseFile(entry.Name(), slug)
		if err != nil {
			result.Error = err.Error()
		} else {
			posts = append(posts, post)
		}

		results = append(results, result)
	}

	return posts, results, nil
}

func (r *fileRepository) Load(ctx context.Context, slug string) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := r.postEntries()
	if err != nil {
		return nil, err
	}

	// Entries are sorted by name, so the file LoadAll keeps is the first match.
	for _, entry := range entries {
		if strings.EqualFold(slugFromFileName(entry.Name()), slug) {
			return r.parseFile(entry.Name(), slug)
		}
	}

	return nil, fs.ErrNotExist
}

func (r *fileRepository) postEntries() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blog directory: %w", err)
	}

	posts := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), postExtension) {
			continue
		}
		posts = append(posts, entry)
	}

	return posts, nil
}

func (r *fileRepository) parseFile(name, slug string) (*Post, error) {
	content, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return r.renderer.Parse(slug, content)
}

func slugFromFileName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
