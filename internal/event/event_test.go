package event

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/taggable/internal/domain"
)

var post = domain.TaggableRef{Type: "post", ID: "42"}

func TestBus_DispatchesToListenersInOrder(t *testing.T) {
	var seen []string
	bus := NewBus(func(_ context.Context, e Event) { seen = append(seen, "a:"+e.Name()) })
	bus.Subscribe(func(_ context.Context, e Event) { seen = append(seen, "b:"+e.Name()) })

	bus.Dispatch(context.Background(),
		TagAttached{Taggable: post, Tag: domain.Tag{Slug: "go"}},
		TagDetached{Taggable: post, Tag: domain.Tag{Slug: "go"}},
	)

	assert.Equal(t, []string{
		"a:tag_attached", "b:tag_attached",
		"a:tag_detached", "b:tag_detached",
	}, seen)
}

func TestDiscard_NoListeners(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Dispatch(context.Background(), TagsSynced{Taggable: post})
	})
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Dispatch(context.Background(), TagAttached{}, TagAttached{}, TagsSynced{})

	assert.Equal(t, 2, rec.Count("tag_attached"))
	assert.Equal(t, 1, rec.Count("tags_synced"))
	assert.Equal(t, 0, rec.Count("tag_detached"))

	rec.Reset()
	assert.Empty(t, rec.Events)
}

func TestLogListener(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogListener(log)(context.Background(), TagAttached{Taggable: post, Tag: domain.Tag{Slug: "golang"}})

	out := buf.String()
	assert.Contains(t, out, `"event":"tag_attached"`)
	assert.Contains(t, out, `"taggable_type":"post"`)
	assert.Contains(t, out, `"taggable_id":"42"`)
	assert.Contains(t, out, `"tag":"golang"`)
}

func TestMetrics_Listener(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	l := m.Listener()

	l(context.Background(), TagAttached{})
	l(context.Background(), TagAttached{})
	l(context.Background(), TagsSynced{Tags: []domain.Tag{{Slug: "a"}, {Slug: "b"}}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("tag_attached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("tags_synced")))

	n, err := testutil.GatherAndCount(reg, "taggable_synced_tags")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
