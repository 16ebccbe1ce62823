package workers

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1F47E/go-trialreel/internal/job"
	"github.com/1F47E/go-trialreel/internal/logger"
)

type AnnotateFunc func(ctx context.Context, j job.Annotate) (image.Image, error)

// Pool runs the jobs of one time step, at most limit at a time.
type Pool struct {
	limit int
}

func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Pool{limit: limit}
}

func (p *Pool) Limit() int {
	return p.limit
}

// Run returns the frames ordered by job.Trial. The first error cancels the rest.
func (p *Pool) Run(ctx context.Context, jobs []job.Annotate, fn AnnotateFunc) ([]image.Image, error) {
	log := logger.Scope("workers")

	res := make([]job.Annotated, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			now := time.Now()
			img, err := fn(ctx, j)
			if err != nil {
				return fmt.Errorf("trial %d offset %d: %w", j.Trial, j.Offset, err)
			}
			log.Debugf("%s done. Took time: %s", j.Print(), time.Since(now))
			res[i] = job.Annotated{Trial: j.Trial, Frame: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	frames := make([]image.Image, len(jobs))
	for _, r := range res {
		if r.Trial < 0 || r.Trial >= len(frames) {
			return nil, fmt.Errorf("trial %d out of range", r.Trial)
		}
		frames[r.Trial] = r.Frame
	}
	return frames, nil
}
