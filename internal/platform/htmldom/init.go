package htmldom

import "github.com/mj1618/shopshield/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{Loader: Loader{}}, nil
	}
}
