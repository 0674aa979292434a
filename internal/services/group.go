package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// GroupRunner executes tasks in fixed-size concurrent groups: every task in a
// group starts together, and group n+1 does not start until group n has fully
// settled. The pause between groups is a courtesy to the external model
// service, not a correctness requirement.
type GroupRunner struct {
	groupSize int
	pause     time.Duration
}

func NewGroupRunner(groupSize int, pause time.Duration) *GroupRunner {
	if groupSize < 1 {
		groupSize = 1
	}
	return &GroupRunner{
		groupSize: groupSize,
		pause:     pause,
	}
}

// Run executes all tasks, bounding concurrency to the group size. Tasks record
// their own outcomes; Run only schedules them. Remaining groups are skipped
// once the context is cancelled.
func (g *GroupRunner) Run(ctx context.Context, tasks []func(ctx context.Context)) {
	for start := 0; start < len(tasks); start += g.groupSize {
		if ctx.Err() != nil {
			log.Printf("🛑 Group runner stopping early: %v\n", ctx.Err())
			return
		}

		end := start + g.groupSize
		if end > len(tasks) {
			end = len(tasks)
		}

		var wg sync.WaitGroup
		for _, task := range tasks[start:end] {
			wg.Add(1)
			go func(run func(ctx context.Context)) {
				defer wg.Done()
				run(ctx)
			}(task)
		}
		wg.Wait()

		if end < len(tasks) && g.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(g.pause):
			}
		}
	}
}
