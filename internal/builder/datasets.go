package builder

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/registry"
)

// maxConcurrentFetches bounds parallel dataset downloads.
const maxConcurrentFetches = 3

// FetchDatasets downloads all datasets of a benchmark entry into the
// cache, in parallel. Already-cached files are verified, not
// re-downloaded. Also used directly by `benchtainer fetch`.
func (b *Builder) FetchDatasets(ctx context.Context, entry registry.Entry) error {
	if len(entry.Datasets) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, ds := range entry.Datasets {
		ds := ds
		g.Go(func() error {
			b.emit(events.NewEvent(events.DatasetFetchStarted, entry.ID).WithPayload(map[string]any{
				"name": ds.Name,
				"url":  ds.URL,
			}))

			fetchCtx := ctx
			if timeout, err := b.cfg.FetchTimeoutDuration(); err == nil && timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := b.fetcher.Fetch(fetchCtx, ds.Name, ds.URL, ds.SHA256)
			if err != nil {
				b.emit(events.NewEvent(events.DatasetFailed, entry.ID).WithError(err).WithPayload(map[string]any{
					"name": ds.Name,
				}))
				return err
			}

			eventType := events.DatasetFetched
			if result.Cached {
				eventType = events.DatasetCached
			}
			b.emit(events.NewEvent(eventType, entry.ID).WithPayload(map[string]any{
				"name": ds.Name,
				"path": result.Path,
				"size": result.HumanSize(),
			}))
			return nil
		})
	}
	return g.Wait()
}
