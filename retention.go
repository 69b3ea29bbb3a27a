package confpub

import "context"

// RetentionPolicy bounds how many versions of a page are kept.
type RetentionPolicy struct {
	MaxVersions int
}

// Validate returns an error if the policy is out of range.
func (p RetentionPolicy) Validate() error {
	if p.MaxVersions < 0 {
		return Errorf(EINVALID, "max versions must not be negative, got %d", p.MaxVersions)
	}
	return nil
}

// VersionsToDelete returns how many of the oldest versions exceed the
// policy when the page is at currentVersion.
func (p RetentionPolicy) VersionsToDelete(currentVersion int) int {
	return max(0, currentVersion-p.MaxVersions)
}

// Pacer spaces out consecutive requests. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}
