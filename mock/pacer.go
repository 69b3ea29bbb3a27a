package mock

import (
	"context"

	"github.com/fwojciec/confpub"
)

var _ confpub.Pacer = (*Pacer)(nil)

// Pacer is a mock implementation of confpub.Pacer.
type Pacer struct {
	WaitFn func(ctx context.Context) error
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.WaitFn(ctx)
}
