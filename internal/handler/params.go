package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/service"
)

// query wraps the URL query of a request with typed accessors. The first
// parse failure is kept in err so handlers check once after reading all
// parameters.
type query struct {
	r   *http.Request
	err error
}

func queryOf(r *http.Request) *query {
	return &query{r: r}
}

func (q *query) has(key string) bool {
	return q.r.URL.Query().Has(key)
}

func (q *query) str(key string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(key))
}

// strPtr returns nil when the parameter is absent or blank.
func (q *query) strPtr(key string) *string {
	if v := q.str(key); v != "" {
		return &v
	}
	return nil
}

// bind decodes an optional form-style query parameter into dest, which must
// be a pointer to a pointer. A blank value leaves dest nil.
func (q *query) bind(key, want string, dest any) {
	if q.str(key) == "" {
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, key, q.r.URL.Query(), dest); err != nil {
		q.fail(key, want)
	}
}

func (q *query) int64Ptr(key string) *int64 {
	var n *int64
	q.bind(key, "an integer", &n)
	return n
}

func (q *query) intPtr(key string) *int {
	var n *int
	q.bind(key, "an integer", &n)
	return n
}

func (q *query) num(key string) int {
	if n := q.intPtr(key); n != nil {
		return *n
	}
	return 0
}

func (q *query) flag(key string) bool {
	var b *bool
	q.bind(key, "a boolean", &b)
	return b != nil && *b
}

// names reads a comma-separated list. An absent parameter yields nil and a
// present but empty one an empty list.
func (q *query) names(key string) service.Names {
	if !q.has(key) {
		return nil
	}
	return service.ParseNames(q.r.URL.Query().Get(key))
}

// list reads a comma-separated list of raw values, or nil when absent.
func (q *query) list(key string) []string {
	if !q.has(key) {
		return nil
	}
	out := []string{}
	for _, v := range strings.Split(q.r.URL.Query().Get(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (q *query) fail(key, want string) {
	if q.err == nil {
		q.err = fmt.Errorf("query parameter %q must be %s", key, want)
	}
}

// taggableRef reads the {type} and {id} path parameters.
func taggableRef(r *http.Request) domain.TaggableRef {
	return domain.TaggableRef{Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")}
}

// tagID binds the {tagId} path parameter.
func tagID(r *http.Request) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "tagId", chi.URLParam(r, "tagId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("tag id must be a UUID")
	}
	return id, nil
}
