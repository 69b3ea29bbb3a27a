package confpub

import "context"

// PageIdentity addresses the page being published.
type PageIdentity struct {
	ContentID string
	SpaceKey  string
}

// Validate returns an error if the identity is incomplete.
func (id PageIdentity) Validate() error {
	if id.ContentID == "" {
		return Errorf(EINVALID, "content ID required")
	}
	if id.SpaceKey == "" {
		return Errorf(EINVALID, "space key required")
	}
	return nil
}

// Page is a snapshot of a page's metadata as the server reported it.
// Snapshots are fetched fresh before every update and never cached.
type Page struct {
	ID      string
	Title   string
	Version int
	Body    string // storage format, only set when requested
}

// UpdateRequest is a new page version submitted to the server.
type UpdateRequest struct {
	ContentID string
	Title     string
	SpaceKey  string
	Body      string
	Version   int
}

// NewUpdateRequest builds the request that writes body as the version
// following the given snapshot. The server rejects the write unless Version
// is exactly one past its current version.
func NewUpdateRequest(id PageIdentity, body string, current *Page) *UpdateRequest {
	return &UpdateRequest{
		ContentID: id.ContentID,
		Title:     current.Title,
		SpaceKey:  id.SpaceKey,
		Body:      body,
		Version:   current.Version + 1,
	}
}

// Validate returns an error if the request contains invalid fields.
func (r *UpdateRequest) Validate() error {
	if r.ContentID == "" {
		return Errorf(EINVALID, "update content ID required")
	}
	if r.Title == "" {
		return Errorf(EINVALID, "update title required")
	}
	if r.Version < 2 {
		return Errorf(EINVALID, "update version must follow an existing version, got %d", r.Version)
	}
	return nil
}

// FindPageOptions controls what FindPage retrieves.
type FindPageOptions struct {
	// IncludeBody requests the storage-format body in addition to metadata.
	IncludeBody bool
}

// PageService reads and writes pages on the wiki.
type PageService interface {
	// FindPage retrieves the current snapshot of a page.
	// Returns ENOTFOUND if the page does not exist.
	FindPage(ctx context.Context, contentID string, opts FindPageOptions) (*Page, error)

	// UpdatePage writes a new page version.
	// Returns ECONFLICT if the version is not the next one.
	UpdatePage(ctx context.Context, req *UpdateRequest) error

	// DeleteVersion removes a single historical version. The server
	// renumbers the remaining history afterwards.
	DeleteVersion(ctx context.Context, contentID string, version int) error
}
