package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkordes/taggable/internal/domain"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TagListResponse is the body of GET /tags.
type TagListResponse struct {
	Data       []domain.TagUsage `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// FindOrCreateTagRequest is the body of POST /tags.
type FindOrCreateTagRequest struct {
	Name   string  `json:"name"`
	Type   *string `json:"type,omitempty"`
	UserID *int64  `json:"user_id,omitempty"`
}

// ListTags handles GET /tags.
// Filters: ?q= substring, ?user_id= owner, ?global=true, ?type=, plus ?page= and ?limit=.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	qp := queryOf(r)
	tq := domain.TagQuery{Type: qp.strPtr("type")}.Containing(qp.str("q"))
	userID := qp.int64Ptr("user_id")
	switch {
	case qp.flag("global"):
		tq = tq.Global()
	case userID != nil:
		tq = tq.ForUser(*userID)
	}
	page := domain.NewPaginationParams(qp.intPtr("page"), qp.intPtr("limit"))
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	tags, total, err := s.tags.Search(r.Context(), tq, page)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{
		Data:       tags,
		Pagination: Pagination{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// FindOrCreateTag handles POST /tags.
func (s *Server) FindOrCreateTag(w http.ResponseWriter, r *http.Request) {
	var body FindOrCreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "request body must be a JSON object")
		return
	}

	tag, err := s.tags.FindOrCreate(r.Context(), body.Name, body.Type, body.UserID)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// GetTag handles GET /tags/{tagId}. The response includes the usage count.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	tag, err := s.tags.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "tag not found")
		return
	}
	n, err := s.tags.Usage(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "tag not found")
		return
	}
	writeJSON(w, http.StatusOK, domain.TagUsage{Tag: tag, Count: n})
}

// DeleteTag handles DELETE /tags/{tagId}. Associations go with the tag.
func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := s.tags.Delete(r.Context(), id); err != nil {
		handleError(w, r, err, "tag not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PopularTags handles GET /tags/popular?limit=&user_id=.
func (s *Server) PopularTags(w http.ResponseWriter, r *http.Request) {
	qp := queryOf(r)
	limit, userID := qp.num("limit"), qp.int64Ptr("user_id")
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	tags, err := s.tags.Popular(r.Context(), limit, userID)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	s.cached(w)
	writeJSON(w, http.StatusOK, tags)
}

// TagCloud handles GET /tags/cloud?user_id=.
func (s *Server) TagCloud(w http.ResponseWriter, r *http.Request) {
	qp := queryOf(r)
	userID := qp.int64Ptr("user_id")
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	cloud, err := s.tags.TagCloud(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	s.cached(w)
	writeJSON(w, http.StatusOK, cloud)
}

// SuggestTags handles GET /tags/suggest?q=&user_id=&limit=.
func (s *Server) SuggestTags(w http.ResponseWriter, r *http.Request) {
	qp := queryOf(r)
	partial, userID, limit := qp.str("q"), qp.int64Ptr("user_id"), qp.num("limit")
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	tags, err := s.tags.Suggest(r.Context(), partial, userID, limit)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// UnusedTags handles GET /tags/unused?user_id=&global=true.
func (s *Server) UnusedTags(w http.ResponseWriter, r *http.Request) {
	qp := queryOf(r)
	userID, global := qp.int64Ptr("user_id"), qp.flag("global")
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	tags, err := s.tags.Unused(r.Context(), userID, global)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
