package session

import (
	"sync"
	"time"

	"github.com/mohitkumar/scriptproc/model"
)

// Queue is the FIFO connection feeding a processor. Penalized FlowFiles stay
// in place and are skipped until their penalty expires.
type Queue struct {
	mu    sync.Mutex
	items []*model.FlowFile
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Offer(ffs ...*model.FlowFile) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, ffs...)
}

// Poll returns the first FlowFile that is not penalized, nil when there is
// none.
func (q *Queue) Poll() *model.FlowFile {
	out := q.PollBatch(1)
	if len(out) == 0 {
		return nil
	}
	return out[0]
}

func (q *Queue) PollBatch(max int) []*model.FlowFile {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max <= 0 || len(q.items) == 0 {
		return nil
	}
	now := time.Now()
	var out []*model.FlowFile
	kept := q.items[:0]
	for _, ff := range q.items {
		if len(out) < max && !ff.IsPenalized(now) {
			out = append(out, ff)
			continue
		}
		kept = append(kept, ff)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	return out
}

// Requeue puts ffs back at the head, keeping their order.
func (q *Queue) Requeue(ffs ...*model.FlowFile) {
	if len(ffs) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]*model.FlowFile, 0, len(ffs)+len(q.items))
	items = append(items, ffs...)
	q.items = append(items, q.items...)
}

// Size counts every queued FlowFile, penalized or not.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Available counts the FlowFiles Poll could hand out right now.
func (q *Queue) Available() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	n := 0
	for _, ff := range q.items {
		if !ff.IsPenalized(now) {
			n++
		}
	}
	return n
}
