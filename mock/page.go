package mock

import (
	"context"

	"github.com/fwojciec/confpub"
)

var _ confpub.PageService = (*PageService)(nil)

// PageService is a mock implementation of confpub.PageService.
type PageService struct {
	FindPageFn      func(ctx context.Context, contentID string, opts confpub.FindPageOptions) (*confpub.Page, error)
	UpdatePageFn    func(ctx context.Context, req *confpub.UpdateRequest) error
	DeleteVersionFn func(ctx context.Context, contentID string, version int) error
}

func (s *PageService) FindPage(ctx context.Context, contentID string, opts confpub.FindPageOptions) (*confpub.Page, error) {
	return s.FindPageFn(ctx, contentID, opts)
}

func (s *PageService) UpdatePage(ctx context.Context, req *confpub.UpdateRequest) error {
	return s.UpdatePageFn(ctx, req)
}

func (s *PageService) DeleteVersion(ctx context.Context, contentID string, version int) error {
	return s.DeleteVersionFn(ctx, contentID, version)
}
