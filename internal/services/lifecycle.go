package services

import "context"

// viewLifetime ties every call made by a view to the view itself, so disposing
// the view cancels outstanding requests and stops late results from landing.
type viewLifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newViewLifetime() viewLifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return viewLifetime{ctx: ctx, cancel: cancel}
}

// bind returns a context cancelled by either the caller or the view.
func (l viewLifetime) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (l viewLifetime) alive() bool {
	return l.ctx.Err() == nil
}

func (l viewLifetime) dispose() {
	l.cancel()
}
