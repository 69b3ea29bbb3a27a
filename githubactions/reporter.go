// Package githubactions reports run failures to the GitHub Actions runner.
package githubactions

import (
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/confpub"
	"github.com/sethvargo/go-githubactions"
)

// Ensure Reporter implements confpub.Reporter at compile time.
var _ confpub.Reporter = (*Reporter)(nil)

// Reporter writes failures as ::error:: workflow commands when running
// inside GitHub Actions and as plain "error:" lines otherwise.
type Reporter struct {
	w        io.Writer
	action   *githubactions.Action
	annotate bool
}

// NewReporter creates a Reporter writing to w. When annotate is true,
// failures become workflow commands the runner turns into annotations.
func NewReporter(w io.Writer, annotate bool) *Reporter {
	return &Reporter{
		w:        w,
		action:   githubactions.New(githubactions.WithWriter(w)),
		annotate: annotate,
	}
}

// Running reports whether the process runs inside a GitHub Actions job.
func Running() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Fail records a failure message.
func (r *Reporter) Fail(message string) {
	if r.annotate {
		r.action.Errorf("%s", message)
		return
	}
	fmt.Fprintf(r.w, "error: %s\n", message)
}
