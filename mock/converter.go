package mock

import "github.com/fwojciec/confpub"

var _ confpub.Converter = (*Converter)(nil)

// Converter is a mock implementation of confpub.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
