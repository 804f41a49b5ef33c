package vsfs

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DebugString renders the superblock the way the original engine's
// print_superblock() did, one field per line.
func (fsys *FileSystem) DebugString() string {
	sb := fsys.sb
	var b strings.Builder
	fmt.Fprintf(&b, "inode_bitmap_addr %d\n", sb.InodeBitmapAddr)
	fmt.Fprintf(&b, "inode_bitmap_len %d\n", sb.InodeBitmapLen)
	fmt.Fprintf(&b, "data_bitmap_addr %d\n", sb.DataBitmapAddr)
	fmt.Fprintf(&b, "data_bitmap_len %d\n", sb.DataBitmapLen)
	fmt.Fprintf(&b, "inode_region_addr %d\n", sb.InodeRegionAddr)
	fmt.Fprintf(&b, "inode_region_len %d\n", sb.InodeRegionLen)
	fmt.Fprintf(&b, "data_region_addr %d\n", sb.DataRegionAddr)
	fmt.Fprintf(&b, "data_region_len %d\n", sb.DataRegionLen)
	fmt.Fprintf(&b, "num_inodes %d\n", sb.NumInodes)
	fmt.Fprintf(&b, "num_data %d\n", sb.NumData)
	return b.String()
}

// LogBitmaps emits the allocated bitmap bits as logrus fields, replacing
// the original engine's print_bitmaps() printf dump.
func (fsys *FileSystem) LogBitmaps(log *logrus.Entry) {
	log.WithFields(logrus.Fields{
		"inode_bits": bitmapString(fsys.inodeBitmap, int(fsys.sb.NumInodes)),
		"data_bits":  bitmapString(fsys.dataBitmap, int(fsys.sb.NumData)),
	}).Debug("vsfs: bitmap dump")
}

// LogInodes emits every allocated inode as a logrus entry, replacing the
// original engine's print_inodes() printf dump.
func (fsys *FileSystem) LogInodes(log *logrus.Entry) {
	for i := 0; i < int(fsys.sb.NumInodes); i++ {
		if !fsys.inodeBitmap.get(i) {
			continue
		}
		ino := fsys.inodes[i]
		log.WithFields(logrus.Fields{
			"inum": i,
			"type": ino.Type,
			"size": ino.Size,
		}).Debug("vsfs: inode")
	}
}

func bitmapString(b bitmap, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if b.get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
