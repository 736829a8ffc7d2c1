package hooks

import "context"

// pool bounds how many concurrent-safe hooks run at once.
type pool struct {
	slots chan struct{}
}

func newPool(size int) *pool {
	return &pool{slots: make(chan struct{}, size)}
}

// submit runs fn on its own goroutine once a slot is free. It returns the
// context error, without running fn, if ctx ends first.
func (p *pool) submit(ctx context.Context, fn func()) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	go func() {
		defer func() { <-p.slots }()
		fn()
	}()
	return nil
}
