//go:build !linux && !windows

package platform

// UnsupportedBackend is returned alongside ErrUnsupported so callers can keep
// a typed nil-safe value.
type UnsupportedBackend struct{}

var _ Backend = (*UnsupportedBackend)(nil)

// NewBackend always fails on this platform.
func NewBackend(Options) (*UnsupportedBackend, error) {
	return nil, ErrUnsupported
}

func (*UnsupportedBackend) Windows() ([]Window, error) {
	return nil, ErrUnsupported
}

func (*UnsupportedBackend) Open(Window) (Handle, error) {
	return nil, ErrUnsupported
}
