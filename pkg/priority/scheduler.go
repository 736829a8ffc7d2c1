package priority

import (
	"container/heap"
	"sync"
)

// execHeap orders executions by priority, then by insertion order.
type execHeap []*HookExecution

func (h execHeap) Len() int { return len(h) }

func (h execHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h execHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *execHeap) Push(x any) { *h = append(*h, x.(*HookExecution)) }

func (h *execHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// scheduler is the pending queue. Dequeue always yields the lowest priority
// number present; equal priorities come out in the order they went in.
type scheduler struct {
	mu   sync.Mutex
	heap execHeap
	seq  uint64
}

func newScheduler() *scheduler {
	return &scheduler{}
}

func (s *scheduler) push(e *HookExecution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.seq = s.seq
	heap.Push(&s.heap, e)
}

func (s *scheduler) pop() (*HookExecution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return nil, false
	}
	return heap.Pop(&s.heap).(*HookExecution), true
}

func (s *scheduler) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// remove drops queued executions by id and returns how many were found.
func (s *scheduler) remove(ids map[string]struct{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.heap[:0]
	n := 0
	for _, e := range s.heap {
		if _, ok := ids[e.ExecutionID]; ok {
			n++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.heap); i++ {
		s.heap[i] = nil
	}
	s.heap = kept
	heap.Init(&s.heap)
	return n
}
