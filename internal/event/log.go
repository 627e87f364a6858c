package event

import (
	"context"
	"log/slog"
)

// LogListener returns a Listener that writes one structured line per event.
func LogListener(log *slog.Logger) Listener {
	return func(ctx context.Context, e Event) {
		attrs := []any{"event", e.Name()}
		switch ev := e.(type) {
		case TagAttached:
			attrs = append(attrs,
				"taggable_type", ev.Taggable.Type,
				"taggable_id", ev.Taggable.ID,
				"tag", ev.Tag.Slug,
			)
		case TagDetached:
			attrs = append(attrs,
				"taggable_type", ev.Taggable.Type,
				"taggable_id", ev.Taggable.ID,
				"tag", ev.Tag.Slug,
			)
		case TagsSynced:
			slugs := make([]string, len(ev.Tags))
			for i, t := range ev.Tags {
				slugs[i] = t.Slug
			}
			attrs = append(attrs,
				"taggable_type", ev.Taggable.Type,
				"taggable_id", ev.Taggable.ID,
				"tags", slugs,
			)
		}
		log.InfoContext(ctx, "tag event", attrs...)
	}
}
