//go:build !unix

package staging

import "math"

// Free space is not probed on this platform.
func freeBytes(string) (uint64, error) {
	return math.MaxUint64, nil
}
