package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/server/middleware"
	"github.com/hearthapi/hearth/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxContentLen   = 10000
)

// PostsHandler serves CRUD over the posts resource. All routes require an
// authenticated user; updates and deletes are restricted to the author.
type PostsHandler struct {
	store *store.Store
}

// NewPostsHandler creates a PostsHandler.
func NewPostsHandler(s *store.Store) *PostsHandler {
	return &PostsHandler{store: s}
}

// postBody is the wire representation of a post.
func postBody(p model.Post) map[string]interface{} {
	body := map[string]interface{}{
		"id":         p.ID,
		"created_at": p.CreatedAt.UTC().Format(timeLayout),
		"updated_at": nil,
		"author":     p.Author,
		"content":    p.Content,
	}
	if p.UpdatedAt != nil {
		body["updated_at"] = p.UpdatedAt.UTC().Format(timeLayout)
	}
	return body
}

func validateContent(content string) []string {
	var reasons []string
	if content == "" {
		reasons = append(reasons, "Content cannot be blank!")
	}
	if len(content) > maxContentLen {
		reasons = append(reasons, fmt.Sprintf("Content cannot be longer than %d characters!", maxContentLen))
	}
	return reasons
}

// contentFromBody pulls the required `content` key out of the request
// body. The key must be present; validation of the value happens
// separately.
func contentFromBody(r *http.Request) (string, bool) {
	var data map[string]interface{}
	if err := readJSON(r, &data); err != nil {
		return "", false
	}
	raw, ok := data["content"]
	if !ok {
		return "", false
	}
	content, _ := raw.(string)
	return content, true
}

// List returns posts ordered by id, paginated, optionally narrowed by
// filter (content or author substring) or by content/author search
// parameters.
// GET /api/v1/posts
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := clampInt(queryInt(r, "limit", defaultPageSize), 1, maxPageSize)

	q := store.PostQuery{
		Filter:  r.URL.Query().Get("filter"),
		Content: r.URL.Query().Get("content"),
		Author:  r.URL.Query().Get("author"),
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}

	total, err := h.store.CountPosts(r.Context(), q)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Unable to load posts!")
		return
	}
	posts, err := h.store.ListPosts(r.Context(), q)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Unable to load posts!")
		return
	}

	bodies := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		bodies = append(bodies, postBody(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"data":  bodies,
	})
}

func (h *PostsHandler) postFromURL(w http.ResponseWriter, r *http.Request) (*model.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "Post does not exist!")
		return nil, false
	}
	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Post does not exist!")
		} else {
			writeFailure(w, http.StatusInternalServerError, "Unable to load post!")
		}
		return nil, false
	}
	return post, true
}

// Get returns a single post.
// GET /api/v1/posts/{id}
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, postBody(*post))
}

// Create adds a post authored by the current user.
// POST /api/v1/posts
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	content, ok := contentFromBody(r)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "Posts require a `content` key!")
		return
	}
	if reasons := validateContent(content); len(reasons) > 0 {
		writeValidationFailure(w, reasons)
		return
	}

	post := &model.Post{
		AuthorID: user.ID,
		Author:   user.Email,
		Content:  content,
	}
	if err := h.store.CreatePost(r.Context(), post); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Unable to create post!")
		return
	}

	writeJSON(w, http.StatusOK, model.Success(postBody(*post)))
}

// Update replaces a post's content. Only the author may update.
// PUT /api/v1/posts/{id}
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postFromURL(w, r)
	if !ok {
		return
	}

	user := middleware.CurrentUser(r.Context())
	if user.ID != post.AuthorID {
		writeFailure(w, http.StatusForbidden, "You cannot update another user's posts!")
		return
	}

	content, ok := contentFromBody(r)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "Posts require a `content` key!")
		return
	}
	if reasons := validateContent(content); len(reasons) > 0 {
		writeValidationFailure(w, reasons)
		return
	}

	post.Content = content
	if err := h.store.UpdatePost(r.Context(), post); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Unable to update post!")
		return
	}

	writeJSON(w, http.StatusOK, postBody(*post))
}

// Delete removes a post. Only the author may delete.
// DELETE /api/v1/posts/{id}
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postFromURL(w, r)
	if !ok {
		return
	}

	user := middleware.CurrentUser(r.Context())
	if user.ID != post.AuthorID {
		writeFailure(w, http.StatusForbidden, "You cannot remove another user's posts!")
		return
	}

	if err := h.store.DeletePost(r.Context(), post.ID); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Unable to remove post!")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
