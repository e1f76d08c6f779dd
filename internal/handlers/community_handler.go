package handlers

import (
	"net/http"

	"fellowship/internal/service"
)

// CommunityHandler serves the community feed
type CommunityHandler struct {
	community *service.CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(community *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

// Feed returns posts newest first, marked with what the caller may do
func (h *CommunityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.community.Feed()
	if err != nil {
		handleServiceError(w, "Error loading feed", err)
		return
	}
	respondJSON(w, http.StatusOK, newPostViews(posts, GetUserFromContext(r.Context())))
}

// CreatePost publishes a post. image_url is a URL returned by the upload endpoint.
func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var input service.PostInput
	if !decodeJSON(w, r, &input) {
		return
	}

	post, err := h.community.CreatePost(user, input)
	if err != nil {
		handleServiceError(w, "Error creating post", err)
		return
	}
	respondJSON(w, http.StatusCreated, newPostView(*post, user))
}

// DeletePost removes a post. Only its author or a moderator may do this.
func (h *CommunityHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := h.community.DeletePost(r.Context(), user, r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting post", err)
		return
	}
	respondNoContent(w)
}

// ToggleLike likes or unlikes a post
func (h *CommunityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	liked, err := h.community.ToggleLike(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, "Error liking post", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// AddComment replies to a post
func (h *CommunityHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.community.AddComment(r.Context(), user, r.PathValue("id"), req.Content)
	if err != nil {
		handleServiceError(w, "Error adding comment", err)
		return
	}
	respondJSON(w, http.StatusCreated, CommentView{Comment: *comment, CanDelete: true})
}

// DeleteComment removes a comment. Only its author or a moderator may do this.
func (h *CommunityHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := h.community.DeleteComment(user, r.PathValue("id")); err != nil {
		handleServiceError(w, "Error deleting comment", err)
		return
	}
	respondNoContent(w)
}
