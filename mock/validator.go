package mock

import "github.com/fwojciec/confpub"

var _ confpub.HTMLValidator = (*HTMLValidator)(nil)

// HTMLValidator is a mock implementation of confpub.HTMLValidator.
type HTMLValidator struct {
	ValidateFn func(html string) ([]confpub.Diagnostic, error)
}

func (v *HTMLValidator) Validate(html string) ([]confpub.Diagnostic, error) {
	return v.ValidateFn(html)
}
