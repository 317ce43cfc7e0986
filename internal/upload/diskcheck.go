package upload

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// checkFreeSpace verifies dir has room for need bytes plus margin. Statfs
// failures are ignored so exotic filesystems don't block uploads.
func checkFreeSpace(dir string, need, margin int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return nil
	}
	free := int64(stat.Bavail) * int64(stat.Bsize)
	if free < need+margin {
		return fmt.Errorf("%w: need %d bytes plus %d margin, %d available in %s",
			ErrInsufficientSpace, need, margin, free, dir)
	}
	return nil
}
