// Package handler implements the HTTP API for taggable.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, tag.go, taggable.go) but share the Server struct and its
// dependencies. Routes wires them onto a chi router.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/service"
	"github.com/pkordes/taggable/spec"
)

// TagServicer defines the tag store operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type TagServicer interface {
	FindOrCreate(ctx context.Context, name string, typ *string, userID *int64) (domain.Tag, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Tag, error)
	Usage(ctx context.Context, id uuid.UUID) (int64, error)
	Search(ctx context.Context, q domain.TagQuery, page domain.PaginationParams) ([]domain.TagUsage, int64, error)
	Popular(ctx context.Context, limit int, userID *int64) ([]domain.TagUsage, error)
	TagCloud(ctx context.Context, userID *int64) ([]domain.CloudTag, error)
	Suggest(ctx context.Context, partial string, userID *int64, limit int) ([]domain.Tag, error)
	Unused(ctx context.Context, userID *int64, globalOnly bool) ([]domain.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaggingServicer defines the per-entity operations the handlers depend on.
type TaggingServicer interface {
	Tags(ctx context.Context, ref domain.TaggableRef) ([]domain.Tag, error)
	TagsWithType(ctx context.Context, ref domain.TaggableRef, typ string, userID *int64) ([]domain.Tag, error)
	UserTags(ctx context.Context, ref domain.TaggableRef, userID int64) ([]domain.Tag, error)
	GlobalTags(ctx context.Context, ref domain.TaggableRef) ([]domain.Tag, error)
	Tag(ctx context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error
	Untag(ctx context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error
	Sync(ctx context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error
	Purge(ctx context.Context, ref domain.TaggableRef) (int, error)
	WithAnyTags(ctx context.Context, taggableType string, candidates []string, names service.Names, sc service.Scope) ([]string, error)
	WithAllTags(ctx context.Context, taggableType string, candidates []string, names service.Names, sc service.Scope) ([]string, error)
	WithoutTags(ctx context.Context, taggableType string, candidates []string, names service.Names, sc service.Scope) ([]string, error)
}

// CacheOptions controls the Cache-Control header on aggregate endpoints.
type CacheOptions struct {
	Enabled bool
	TTL     time.Duration
}

// Server holds the dependencies shared by every handler.
type Server struct {
	tags    TagServicer
	tagging TaggingServicer
	cache   string
}

// NewServer constructs the Server with all its dependencies.
func NewServer(tags TagServicer, tagging TaggingServicer, cache CacheOptions) *Server {
	s := &Server{tags: tags, tagging: tagging}
	if cache.Enabled && cache.TTL > 0 {
		s.cache = fmt.Sprintf("public, max-age=%d", int(cache.TTL.Seconds()))
	}
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, CacheOptions{})
}

// Routes returns a router serving every endpoint. Middleware is left to the
// caller so tests can exercise the bare routes.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveSpec)

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.ListTags)
		r.Post("/", s.FindOrCreateTag)
		r.Get("/popular", s.PopularTags)
		r.Get("/cloud", s.TagCloud)
		r.Get("/suggest", s.SuggestTags)
		r.Get("/unused", s.UnusedTags)
		r.Get("/{tagId}", s.GetTag)
		r.Delete("/{tagId}", s.DeleteTag)
	})

	r.Route("/taggables/{type}", func(r chi.Router) {
		r.Get("/", s.FilterTaggables)
		r.Delete("/{id}", s.PurgeTaggable)
		r.Get("/{id}/tags", s.ListEntityTags)
		r.Post("/{id}/tags", s.TagEntity)
		r.Put("/{id}/tags", s.SyncEntityTags)
		r.Delete("/{id}/tags", s.UntagEntity)
	})

	return r
}

// serveSpec handles GET /openapi.yaml.
func serveSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// cached sets Cache-Control when response caching is configured.
func (s *Server) cached(w http.ResponseWriter) {
	if s.cache != "" {
		w.Header().Set("Cache-Control", s.cache)
	}
}
