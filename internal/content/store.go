/**
 * @description
 * This package implements the blog content store. Posts are markdown files
 * in a directory, each with a YAML front matter block between `---` fences
 * followed by the body. The store reads the directory on every call; there
 * is no caching layer, content changes ship as file changes.
 */
package content

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

// ErrPostNotFound is returned when no post exists for a slug.
var ErrPostNotFound = errors.New("post not found")

// Store reads blog posts from a directory of markdown files.
type Store struct {
	dir string
}

// NewStore creates a content store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// ListPosts returns the metadata of every post, newest date first. Ordering
// is a pure string comparison on the date field (lexicographic ISO dates);
// ties keep directory order. A missing directory yields an empty list.
func (s *Store) ListPosts() ([]domain.PostMeta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.PostMeta{}, nil
		}
		return nil, err
	}

	var posts []domain.PostMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		post, err := s.GetPost(slug)
		if err != nil {
			// A single malformed file should not take the whole list down.
			continue
		}
		posts = append(posts, post.PostMeta)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})
	return posts, nil
}

// GetPost returns the full post for a slug, or ErrPostNotFound.
func (s *Store) GetPost(slug string) (*domain.Post, error) {
	// Slugs come from URLs; refuse anything that could escape the posts dir.
	if slug == "" || strings.ContainsAny(slug, "/\\") || strings.Contains(slug, "..") {
		return nil, ErrPostNotFound
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, slug+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	meta, body := splitFrontMatter(string(raw))

	post := &domain.Post{Content: body}
	post.Slug = slug
	if meta != "" {
		if err := yaml.Unmarshal([]byte(meta), &post.PostMeta); err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	if post.Title == "" {
		post.Title = "제목 없음"
	}
	if post.Author == "" {
		post.Author = "익명"
	}
	if post.Category == "" {
		post.Category = "미분류"
	}
	return post, nil
}

// PostsByCategory returns the posts in a category, newest first.
func (s *Store) PostsByCategory(category string) ([]domain.PostMeta, error) {
	all, err := s.ListPosts()
	if err != nil {
		return nil, err
	}
	var filtered []domain.PostMeta
	for _, p := range all {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// PostsByTag returns the posts carrying a tag, newest first.
func (s *Store) PostsByTag(tag string) ([]domain.PostMeta, error) {
	all, err := s.ListPosts()
	if err != nil {
		return nil, err
	}
	var filtered []domain.PostMeta
	for _, p := range all {
		for _, t := range p.Tags {
			if t == tag {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// splitFrontMatter separates the YAML front matter block from the body. A
// file without a leading `---` fence is all body.
func splitFrontMatter(raw string) (meta, body string) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return "", normalized
	}
	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", normalized
	}
	meta = rest[:end]
	body = rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return meta, body
}
