package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/confpub"
	"github.com/fwojciec/confpub/publish"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Reporter  confpub.Reporter
	Publisher *publish.Publisher
}

// CLI defines the command-line interface structure for Kong.
// Every flag can also be set through the GitHub Actions input variable
// INPUT_<NAME>, the form the runner uses to pass step inputs.
type CLI struct {
	Debug bool `help:"Enable debug logging" env:"INPUT_DEBUG"`

	Publish  PublishCmd  `cmd:"" help:"Validate HTML, publish it as the next page version, and trim old versions"`
	Validate ValidateCmd `cmd:"" help:"Validate HTML without contacting Confluence"`
}

// PublishCmd is the "publish" subcommand.
type PublishCmd struct {
	ContentID   string `name:"content-id" required:"" env:"INPUT_CONTENT_ID" help:"ID of the page to update"`
	SpaceKey    string `name:"space-key" required:"" env:"INPUT_SPACE_KEY" help:"Key of the space containing the page"`
	Username    string `name:"confluence-username" required:"" env:"INPUT_CONFLUENCE_USERNAME" help:"Confluence account email"`
	APIKey      string `name:"confluence-api-key" required:"" env:"INPUT_CONFLUENCE_API_KEY" help:"Confluence API token"`
	BaseURL     string `name:"confluence-base-url" required:"" env:"INPUT_CONFLUENCE_BASE_URL" help:"Site URL, e.g. https://example.atlassian.net"`
	HTMLContent string `name:"html-content" required:"" env:"INPUT_HTML_CONTENT" help:"Page body in storage format"`
	MaxVersions int    `name:"max-versions" required:"" env:"INPUT_MAX_VERSIONS" help:"Number of versions to keep"`

	InsecureSkipVerify bool          `name:"insecure-skip-verify" default:"true" negatable:"" env:"INPUT_INSECURE_SKIP_VERIFY" help:"Skip TLS certificate verification. Insecure; on by default for compatibility"`
	Timeout            time.Duration `default:"30s" env:"INPUT_TIMEOUT" help:"Timeout per request, 0 to wait indefinitely"`
	ValidatorErrors    string        `name:"validator-errors" enum:"ignore,fail" default:"ignore" env:"INPUT_VALIDATOR_ERRORS" help:"What to do when the HTML validator itself fails (ignore, fail)"`
	SkipValidation     bool          `name:"skip-validation" env:"INPUT_SKIP_VALIDATION" help:"Publish without validating HTML"`
	SkipUnchanged      bool          `name:"skip-unchanged" env:"INPUT_SKIP_UNCHANGED" help:"Leave the page alone when its content already matches"`
	DryRun             bool          `name:"dry-run" env:"INPUT_DRY_RUN" help:"Show what would be published without writing"`
	DeleteInterval     time.Duration `name:"delete-interval" default:"0s" env:"INPUT_DELETE_INTERVAL" help:"Minimum time between version deletes"`
}

// Validate checks inputs that kong cannot express as tags.
func (c *PublishCmd) Validate() error {
	if c.MaxVersions < 0 {
		return confpub.Errorf(confpub.EINVALID, "max versions must not be negative, got %d", c.MaxVersions)
	}
	return nil
}

// checkConnection rejects connection inputs that were passed but empty, as
// happens with unset action inputs.
func (c *PublishCmd) checkConnection() error {
	switch {
	case c.BaseURL == "":
		return confpub.Errorf(confpub.EINVALID, "confluence base URL required")
	case c.Username == "":
		return confpub.Errorf(confpub.EINVALID, "confluence username required")
	case c.APIKey == "":
		return confpub.Errorf(confpub.EINVALID, "confluence API key required")
	}
	return nil
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	HTMLContent     string `name:"html-content" required:"" env:"INPUT_HTML_CONTENT" help:"Page body in storage format"`
	ValidatorErrors string `name:"validator-errors" enum:"ignore,fail" default:"fail" env:"INPUT_VALIDATOR_ERRORS" help:"What to do when the HTML validator itself fails (ignore, fail)"`
}
