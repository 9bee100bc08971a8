//go:build !ffms2

package ffms

import "errors"

var errNotBuilt = errors.New("built without the ffms2 tag")

// Available reports whether FFMS2 support is compiled in.
func Available() bool {
	return false
}

func nativeLibrary() (library, error) {
	return nil, errNotBuilt
}
