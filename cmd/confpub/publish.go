package main

import (
	"fmt"

	"github.com/fwojciec/confpub"
	"github.com/fwojciec/confpub/publish"
)

// Run executes the publish command.
func (c *PublishCmd) Run(deps *Dependencies) error {
	req := &publish.Request{
		Page: confpub.PageIdentity{
			ContentID: c.ContentID,
			SpaceKey:  c.SpaceKey,
		},
		HTML:      c.HTMLContent,
		Retention: confpub.RetentionPolicy{MaxVersions: c.MaxVersions},
		DryRun:    c.DryRun,
	}

	result, err := deps.Publisher.Publish(deps.Ctx, req)
	if err != nil {
		return err
	}

	switch {
	case result.Skipped:
		fmt.Fprintf(deps.Stdout, "Page %s is up to date at version %d\n", c.ContentID, result.Version)
	case result.DryRun:
		fmt.Fprintf(deps.Stdout, "Dry run: would publish version %d of page %s and delete %d old versions\n",
			result.Version, c.ContentID, result.PendingDeletes)
		if result.Preview != "" {
			fmt.Fprintf(deps.Stdout, "\n%s\n", result.Preview)
		}
	default:
		fmt.Fprintf(deps.Stdout, "Published version %d of page %s\n", result.Version, c.ContentID)
		if result.Trim.Attempted > 0 {
			fmt.Fprintf(deps.Stdout, "  Deleted %d old versions", result.Trim.Deleted)
			if result.Trim.Failed > 0 {
				fmt.Fprintf(deps.Stdout, " (%d failed)", result.Trim.Failed)
			}
			fmt.Fprintln(deps.Stdout)
		}
	}
	return nil
}
