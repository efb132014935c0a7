//go:build !unix

package fileaccess

import "os"

// lockExclusive is a no-op where flock is unavailable. Exclusivity then
// rests on O_EXCL for created files only.
func lockExclusive(f *os.File) error {
	_ = f
	return nil
}
