package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/service"
)

// EntityTagsRequest is the body of POST and PUT /taggables/{type}/{id}/tags.
type EntityTagsRequest struct {
	Names  []string `json:"names"`
	Type   *string  `json:"type,omitempty"`
	UserID *int64   `json:"user_id,omitempty"`
}

// FilterResponse is the body of GET /taggables/{type}.
type FilterResponse struct {
	Data []string `json:"data"`
}

// PurgeResponse is the body of DELETE /taggables/{type}/{id}.
type PurgeResponse struct {
	Removed int `json:"removed"`
}

// ListEntityTags handles GET /taggables/{type}/{id}/tags.
// ?tag_type= narrows to one tag type (scoped by ?user_id=), ?global=true
// returns only global tags, and ?user_id= alone returns only that user's tags.
func (s *Server) ListEntityTags(w http.ResponseWriter, r *http.Request) {
	ref := taggableRef(r)
	qp := queryOf(r)
	typ, userID, global := qp.strPtr("tag_type"), qp.int64Ptr("user_id"), qp.flag("global")
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	var (
		tags []domain.Tag
		err  error
	)
	switch {
	case typ != nil:
		tags, err = s.tagging.TagsWithType(r.Context(), ref, *typ, userID)
	case global:
		tags, err = s.tagging.GlobalTags(r.Context(), ref)
	case userID != nil:
		tags, err = s.tagging.UserTags(r.Context(), ref, *userID)
	default:
		tags, err = s.tagging.Tags(r.Context(), ref)
	}
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// TagEntity handles POST /taggables/{type}/{id}/tags and responds with the
// entity's tags afterwards.
func (s *Server) TagEntity(w http.ResponseWriter, r *http.Request) {
	s.mutateEntity(w, r, s.tagging.Tag)
}

// SyncEntityTags handles PUT /taggables/{type}/{id}/tags. The entity's tags in
// the requested scope become exactly the names given.
func (s *Server) SyncEntityTags(w http.ResponseWriter, r *http.Request) {
	s.mutateEntity(w, r, s.tagging.Sync)
}

type entityMutation func(ctx context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error

func (s *Server) mutateEntity(w http.ResponseWriter, r *http.Request, fn entityMutation) {
	ref := taggableRef(r)
	var body EntityTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "request body must be a JSON object")
		return
	}

	names := service.Names(body.Names)
	if names == nil {
		names = service.Names{}
	}
	if err := fn(r.Context(), ref, names, service.Scope{Type: body.Type, UserID: body.UserID}); err != nil {
		handleError(w, r, err, "")
		return
	}

	tags, err := s.tagging.Tags(r.Context(), ref)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// UntagEntity handles DELETE /taggables/{type}/{id}/tags?names=&type=&user_id=.
// Without ?names every tag in the scope is removed; ?names= with an empty
// value removes nothing.
func (s *Server) UntagEntity(w http.ResponseWriter, r *http.Request) {
	ref := taggableRef(r)
	qp := queryOf(r)
	names := qp.names("names")
	sc := service.Scope{Type: qp.strPtr("type"), UserID: qp.int64Ptr("user_id")}
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	if err := s.tagging.Untag(r.Context(), ref, names, sc); err != nil {
		handleError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeTaggable handles DELETE /taggables/{type}/{id}. Hosts call it when the
// entity itself is deleted.
func (s *Server) PurgeTaggable(w http.ResponseWriter, r *http.Request) {
	n, err := s.tagging.Purge(r.Context(), taggableRef(r))
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Removed: n})
}

// FilterTaggables handles GET /taggables/{type}.
// Exactly one of ?any=, ?all= or ?without= names the tags to match. ?ids=
// restricts and orders the entities considered; without it every tagged
// entity of the type is. ?tag_type= and ?user_id= scope the tags.
func (s *Server) FilterTaggables(w http.ResponseWriter, r *http.Request) {
	taggableType := taggableRef(r).Type
	qp := queryOf(r)
	ids := qp.list("ids")
	sc := service.Scope{Type: qp.strPtr("tag_type"), UserID: qp.int64Ptr("user_id")}
	if qp.err != nil {
		badRequest(w, qp.err.Error())
		return
	}

	type filter func(context.Context, string, []string, service.Names, service.Scope) ([]string, error)
	var (
		fn    filter
		names service.Names
		set   int
	)
	for _, f := range []struct {
		key string
		fn  filter
	}{
		{"any", s.tagging.WithAnyTags},
		{"all", s.tagging.WithAllTags},
		{"without", s.tagging.WithoutTags},
	} {
		if qp.has(f.key) {
			fn, names = f.fn, qp.names(f.key)
			set++
		}
	}
	if set != 1 {
		badRequest(w, "exactly one of any, all or without is required")
		return
	}

	out, err := fn(r.Context(), taggableType, ids, names, sc)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, FilterResponse{Data: out})
}
