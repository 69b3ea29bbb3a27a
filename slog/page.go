// Package slog provides log/slog decorators for confpub services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/confpub"
)

// Ensure LoggingPageService implements confpub.PageService.
var _ confpub.PageService = (*LoggingPageService)(nil)

// LoggingPageService wraps a PageService with request logging.
type LoggingPageService struct {
	next   confpub.PageService
	logger *slog.Logger
}

// NewLoggingPageService creates a new LoggingPageService.
func NewLoggingPageService(next confpub.PageService, logger *slog.Logger) *LoggingPageService {
	return &LoggingPageService{next: next, logger: logger}
}

// FindPage delegates to the wrapped service and logs the operation.
func (s *LoggingPageService) FindPage(ctx context.Context, contentID string, opts confpub.FindPageOptions) (page *confpub.Page, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"content_id", contentID,
			"duration", time.Since(begin),
		}
		if page != nil {
			attrs = append(attrs, "version", page.Version)
		}
		s.log(ctx, "fetch page", err, attrs...)
	}(time.Now())
	return s.next.FindPage(ctx, contentID, opts)
}

// UpdatePage delegates to the wrapped service and logs the operation.
func (s *LoggingPageService) UpdatePage(ctx context.Context, req *confpub.UpdateRequest) (err error) {
	defer func(begin time.Time) {
		s.log(ctx, "update page", err,
			"content_id", req.ContentID,
			"version", req.Version,
			"bytes", len(req.Body),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.UpdatePage(ctx, req)
}

// DeleteVersion delegates to the wrapped service and logs the operation.
func (s *LoggingPageService) DeleteVersion(ctx context.Context, contentID string, version int) (err error) {
	defer func(begin time.Time) {
		s.log(ctx, "delete version", err,
			"content_id", contentID,
			"version", version,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.DeleteVersion(ctx, contentID, version)
}

// log writes successful calls at debug level and failures at warn level.
func (s *LoggingPageService) log(ctx context.Context, msg string, err error, attrs ...any) {
	if err != nil {
		s.logger.WarnContext(ctx, msg, append(attrs, "err", confpub.ErrorMessage(err))...)
		return
	}
	s.logger.DebugContext(ctx, msg, attrs...)
}
