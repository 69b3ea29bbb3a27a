// Package publish orchestrates publishing content to a page: it validates
// the HTML, writes it as the next page version, and trims old versions
// beyond the retention window.
//
// Every stage runs sequentially and a failing stage halts the ones after it.
// Failures deleting individual versions are the exception: they are logged
// and the run still succeeds.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/confpub"
)

// oldestVersion is the history slot holding the oldest surviving version.
// The server renumbers history after each delete, so deleting this slot
// repeatedly removes versions oldest first.
const oldestVersion = 1

// ValidatorErrorPolicy decides what happens when the validator itself fails,
// as opposed to finding problems in the content.
type ValidatorErrorPolicy int

const (
	// IgnoreValidatorErrors logs the failure and publishes unvalidated content.
	IgnoreValidatorErrors ValidatorErrorPolicy = iota
	// FailOnValidatorErrors aborts the run.
	FailOnValidatorErrors
)

// ParseValidatorErrorPolicy parses "ignore" or "fail".
func ParseValidatorErrorPolicy(s string) (ValidatorErrorPolicy, error) {
	switch s {
	case "", "ignore":
		return IgnoreValidatorErrors, nil
	case "fail":
		return FailOnValidatorErrors, nil
	default:
		return 0, confpub.Errorf(confpub.EINVALID, "unknown validator error policy %q", s)
	}
}

// Publisher publishes content to pages.
type Publisher struct {
	Pages           confpub.PageService
	Validator       confpub.HTMLValidator // nil skips validation
	ValidatorErrors ValidatorErrorPolicy
	Converter       confpub.Converter // renders dry-run previews
	Pacer           confpub.Pacer     // spaces out version deletes
	Logger          *slog.Logger

	// SkipUnchanged leaves the page alone when its current body already
	// matches the content being published.
	SkipUnchanged bool
}

// Request describes one publish run.
type Request struct {
	Page      confpub.PageIdentity
	HTML      string
	Retention confpub.RetentionPolicy

	// DryRun stops after fetching the page; nothing is written or deleted.
	DryRun bool
}

// Result holds the outcome of a publish run.
type Result struct {
	// PreviousVersion is the page version observed before the update.
	PreviousVersion int
	// Version is the page version after the run.
	Version int
	Trim    TrimResult

	Skipped bool
	DryRun  bool
	// PendingDeletes is how many versions a real run would trim.
	PendingDeletes int
	// Preview is the Markdown rendering of the content on dry runs.
	Preview string
}

// TrimResult counts the version deletes issued by Trim.
type TrimResult struct {
	Attempted int
	Deleted   int
	Failed    int
}

// Publish validates req.HTML, writes it as the next version of the page,
// then trims history using the version observed before the update.
func (p *Publisher) Publish(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Page.Validate(); err != nil {
		return nil, err
	}
	if err := req.Retention.Validate(); err != nil {
		return nil, err
	}

	if err := p.Validate(req.HTML); err != nil {
		return nil, err
	}

	current, err := p.Pages.FindPage(ctx, req.Page.ContentID, confpub.FindPageOptions{
		IncludeBody: p.SkipUnchanged,
	})
	if err != nil {
		return nil, err
	}

	logger := p.logger().With("content_id", req.Page.ContentID)
	logger.Info("current page", "title", current.Title, "version", current.Version)

	result := &Result{
		PreviousVersion: current.Version,
		Version:         current.Version,
	}

	if p.SkipUnchanged && Digest(current.Body) == Digest(req.HTML) {
		logger.Info("content unchanged, skipping update", "version", current.Version)
		result.Skipped = true
		return result, nil
	}

	update := confpub.NewUpdateRequest(req.Page, req.HTML, current)

	if req.DryRun {
		result.DryRun = true
		result.Version = update.Version
		result.PendingDeletes = req.Retention.VersionsToDelete(current.Version)
		if p.Converter != nil {
			preview, err := p.Converter.Convert(req.HTML)
			if err != nil {
				return nil, fmt.Errorf("render preview: %w", err)
			}
			result.Preview = preview
		}
		return result, nil
	}

	if err := p.Pages.UpdatePage(ctx, update); err != nil {
		return nil, err
	}
	result.Version = update.Version

	result.Trim = p.Trim(ctx, req.Page.ContentID, req.Retention, current.Version)

	logger.Info("page published",
		"previous_version", result.PreviousVersion,
		"version", result.Version,
		"deleted", result.Trim.Deleted,
		"delete_failures", result.Trim.Failed,
	)
	return result, nil
}

// Validate runs the HTML gate. It returns *confpub.InvalidHTMLError when
// the validator reports any diagnostic.
func (p *Publisher) Validate(html string) error {
	if p.Validator == nil {
		return nil
	}

	diags, err := p.Validator.Validate(html)
	if err != nil {
		if p.ValidatorErrors == FailOnValidatorErrors {
			return confpub.Errorf(confpub.EINTERNAL, "html validator failed: %v", err)
		}
		p.logger().Warn("html validator failed, publishing unvalidated content", "err", err)
		return nil
	}

	if len(diags) > 0 {
		return &confpub.InvalidHTMLError{Diagnostics: diags}
	}
	return nil
}

// Trim deletes the versions of a page that fall outside policy, given the
// page was at currentVersion before the latest update. It issues
// currentVersion - MaxVersions sequential deletes of the oldest version.
// A failed delete is logged and counted; the remaining deletes still run.
// Trim stops early only when ctx is done.
func (p *Publisher) Trim(ctx context.Context, contentID string, policy confpub.RetentionPolicy, currentVersion int) TrimResult {
	var result TrimResult
	logger := p.logger().With("content_id", contentID)

	n := policy.VersionsToDelete(currentVersion)
	if n == 0 {
		logger.Info("version history within retention",
			"version", currentVersion,
			"max_versions", policy.MaxVersions,
		)
		return result
	}

	logger.Info("trimming versions", "count", n)
	for i := 0; i < n; i++ {
		if p.Pacer != nil {
			if err := p.Pacer.Wait(ctx); err != nil {
				logger.Warn("trim interrupted", "remaining", n-i, "err", err)
				return result
			}
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("trim interrupted", "remaining", n-i, "err", err)
			return result
		}

		result.Attempted++
		if err := p.Pages.DeleteVersion(ctx, contentID, oldestVersion); err != nil {
			result.Failed++
			logger.Warn("delete version failed", "err", confpub.ErrorMessage(err))
			continue
		}
		result.Deleted++
	}
	return result
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Digest returns a hash of content that ignores surrounding whitespace.
func Digest(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(strings.TrimSpace(content)))
}
