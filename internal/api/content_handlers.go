/**
 * @description
 * HTTP handlers for the blog content endpoints. The list endpoint supports
 * category and tag filters; the detail endpoint returns the post with its
 * markdown body rendered to HTML.
 */
package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chiwonkim111/vibecoding-backend/internal/content"
	"github.com/chiwonkim111/vibecoding-backend/internal/domain"
)

// ContentHandlers serves blog posts from the content store.
type ContentHandlers struct {
	store *content.Store
}

// NewContentHandlers creates content handlers backed by the given store.
func NewContentHandlers(store *content.Store) *ContentHandlers {
	return &ContentHandlers{store: store}
}

// ListPostsHandler handles GET /api/posts with optional ?category= and
// ?tag= filters.
func (h *ContentHandlers) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		posts []domain.PostMeta
		err   error
	)
	switch {
	case r.URL.Query().Get("category") != "":
		posts, err = h.store.PostsByCategory(r.URL.Query().Get("category"))
	case r.URL.Query().Get("tag") != "":
		posts, err = h.store.PostsByTag(r.URL.Query().Get("tag"))
	default:
		posts, err = h.store.ListPosts()
	}
	if err != nil {
		log.Printf("level=error component=api op=list_posts err=%v", err)
		respondWithError(w, http.StatusInternalServerError, "포스트 목록을 불러올 수 없습니다.")
		return
	}
	if posts == nil {
		posts = []domain.PostMeta{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// GetPostHandler handles GET /api/posts/{slug}.
func (h *ContentHandlers) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.store.GetPost(slug)
	if err != nil {
		if errors.Is(err, content.ErrPostNotFound) {
			respondWithError(w, http.StatusNotFound, "포스트를 찾을 수 없습니다.")
			return
		}
		log.Printf("level=error component=api op=get_post slug=%s err=%v", slug, err)
		respondWithError(w, http.StatusInternalServerError, "포스트를 불러올 수 없습니다.")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"post": post,
		"html": content.RenderMarkdown(post.Content),
	})
}
