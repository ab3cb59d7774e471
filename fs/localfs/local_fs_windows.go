package localfs

import (
	"os"

	"github.com/vfsr/vfsr/fs"
)

//nolint:revive
func platformSpecificOwnerInfo(fi os.FileInfo) fs.OwnerInfo {
	return fs.OwnerInfo{}
}
