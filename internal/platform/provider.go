package platform

import "errors"

// Provider bundles the page backends available to the CLI.
type Provider struct {
	Loader Loader
}

// ErrUnsupported is returned when no page backend has been registered.
var ErrUnsupported = errors.New("no page backend registered; import internal/platform/htmldom")

// NewProviderFunc is set by backend packages via init().
// See internal/platform/htmldom/init.go.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns the registered Provider.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
