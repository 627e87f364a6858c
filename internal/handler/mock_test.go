package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/handler"
	"github.com/pkordes/taggable/internal/service"
)

// ---- mock TagServicer -------------------------------------------------------

type mockTagServicer struct {
	findOrCreate func(ctx context.Context, name string, typ *string, userID *int64) (domain.Tag, error)
	get          func(ctx context.Context, id uuid.UUID) (domain.Tag, error)
	usage        func(ctx context.Context, id uuid.UUID) (int64, error)
	search       func(ctx context.Context, q domain.TagQuery, page domain.PaginationParams) ([]domain.TagUsage, int64, error)
	popular      func(ctx context.Context, limit int, userID *int64) ([]domain.TagUsage, error)
	cloud        func(ctx context.Context, userID *int64) ([]domain.CloudTag, error)
	suggest      func(ctx context.Context, partial string, userID *int64, limit int) ([]domain.Tag, error)
	unused       func(ctx context.Context, userID *int64, globalOnly bool) ([]domain.Tag, error)
	delete       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTagServicer) FindOrCreate(ctx context.Context, name string, typ *string, userID *int64) (domain.Tag, error) {
	return m.findOrCreate(ctx, name, typ, userID)
}
func (m *mockTagServicer) Get(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	return m.get(ctx, id)
}
func (m *mockTagServicer) Usage(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.usage(ctx, id)
}
func (m *mockTagServicer) Search(ctx context.Context, q domain.TagQuery, page domain.PaginationParams) ([]domain.TagUsage, int64, error) {
	return m.search(ctx, q, page)
}
func (m *mockTagServicer) Popular(ctx context.Context, limit int, userID *int64) ([]domain.TagUsage, error) {
	return m.popular(ctx, limit, userID)
}
func (m *mockTagServicer) TagCloud(ctx context.Context, userID *int64) ([]domain.CloudTag, error) {
	return m.cloud(ctx, userID)
}
func (m *mockTagServicer) Suggest(ctx context.Context, partial string, userID *int64, limit int) ([]domain.Tag, error) {
	return m.suggest(ctx, partial, userID, limit)
}
func (m *mockTagServicer) Unused(ctx context.Context, userID *int64, globalOnly bool) ([]domain.Tag, error) {
	return m.unused(ctx, userID, globalOnly)
}
func (m *mockTagServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTagServicer must satisfy handler.TagServicer.
var _ handler.TagServicer = (*mockTagServicer)(nil)

// ---- mock TaggingServicer ---------------------------------------------------

type entityCall struct {
	ref   domain.TaggableRef
	names service.Names
	scope service.Scope
}

type filterCall struct {
	taggableType string
	candidates   []string
	names        service.Names
	scope        service.Scope
}

// mockTaggingServicer records mutation and filter calls and answers reads
// from tags.
type mockTaggingServicer struct {
	tags   []domain.Tag
	err    error
	calls  map[string][]entityCall
	filter map[string][]filterCall
	listed string
}

func newMockTagging(tags ...domain.Tag) *mockTaggingServicer {
	return &mockTaggingServicer{
		tags:   tags,
		calls:  map[string][]entityCall{},
		filter: map[string][]filterCall{},
	}
}

func (m *mockTaggingServicer) read(name string) ([]domain.Tag, error) {
	m.listed = name
	return m.tags, m.err
}

func (m *mockTaggingServicer) record(name string, ref domain.TaggableRef, names service.Names, sc service.Scope) error {
	m.calls[name] = append(m.calls[name], entityCall{ref, names, sc})
	return m.err
}

func (m *mockTaggingServicer) match(name, typ string, ids []string, names service.Names, sc service.Scope) ([]string, error) {
	m.filter[name] = append(m.filter[name], filterCall{typ, ids, names, sc})
	return []string{"1"}, m.err
}

func (m *mockTaggingServicer) Tags(context.Context, domain.TaggableRef) ([]domain.Tag, error) {
	return m.read("Tags")
}
func (m *mockTaggingServicer) TagsWithType(context.Context, domain.TaggableRef, string, *int64) ([]domain.Tag, error) {
	return m.read("TagsWithType")
}
func (m *mockTaggingServicer) UserTags(context.Context, domain.TaggableRef, int64) ([]domain.Tag, error) {
	return m.read("UserTags")
}
func (m *mockTaggingServicer) GlobalTags(context.Context, domain.TaggableRef) ([]domain.Tag, error) {
	return m.read("GlobalTags")
}
func (m *mockTaggingServicer) Tag(_ context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error {
	return m.record("Tag", ref, names, sc)
}
func (m *mockTaggingServicer) Untag(_ context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error {
	return m.record("Untag", ref, names, sc)
}
func (m *mockTaggingServicer) Sync(_ context.Context, ref domain.TaggableRef, names service.Names, sc service.Scope) error {
	return m.record("Sync", ref, names, sc)
}
func (m *mockTaggingServicer) Purge(_ context.Context, ref domain.TaggableRef) (int, error) {
	_ = m.record("Purge", ref, nil, service.Scope{})
	return 2, m.err
}
func (m *mockTaggingServicer) WithAnyTags(_ context.Context, typ string, ids []string, names service.Names, sc service.Scope) ([]string, error) {
	return m.match("WithAnyTags", typ, ids, names, sc)
}
func (m *mockTaggingServicer) WithAllTags(_ context.Context, typ string, ids []string, names service.Names, sc service.Scope) ([]string, error) {
	return m.match("WithAllTags", typ, ids, names, sc)
}
func (m *mockTaggingServicer) WithoutTags(_ context.Context, typ string, ids []string, names service.Names, sc service.Scope) ([]string, error) {
	return m.match("WithoutTags", typ, ids, names, sc)
}

var _ handler.TaggingServicer = (*mockTaggingServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newHTTPHandler(tags handler.TagServicer, tagging handler.TaggingServicer) http.Handler {
	return handler.NewServer(tags, tagging, handler.CacheOptions{Enabled: true, TTL: time.Hour}).Routes()
}

func serve(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func tagFixture(name, slug string) domain.Tag {
	return domain.Tag{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
