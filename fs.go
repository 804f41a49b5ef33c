package vsfs

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// FileSystem is a mounted VSFS image: the authoritative in-memory mirror of
// the on-disk bitmaps and inode table, plus the open backing file. All five
// VSFS operations are methods on *FileSystem; none of them are safe to call
// concurrently with each other (spec §5 — the server processes one request
// at a time and relies on that for correctness).
type FileSystem struct {
	path string
	f    *os.File
	sb   *Superblock

	inodeBitmap bitmap
	dataBitmap  bitmap

	dirtyInodeBitmap bitmap
	dirtyDataBitmap  bitmap

	inodes []Inode
}

// Mount opens an existing, well-formed VSFS image, reads its superblock,
// both bitmaps, and the entire inode table into memory, and takes an
// exclusive advisory lock on the backing file so it can be treated as the
// single exclusive mutable resource spec §5 assumes. No image creation
// happens here; see Format for that.
func Mount(path string) (*FileSystem, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFatalCorruption, path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("vsfs: image %s already mounted: %w", path, err)
	}

	fsys, err := mountFrom(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fsys, nil
}

// mountFrom performs the actual read-in once the backing file is open and
// locked; Mount calls it after opening and locking the file.
func mountFrom(path string, f *os.File) (*FileSystem, error) {
	head := make([]byte, superblockSize())
	if err := readAt(f, 0, head); err != nil {
		return nil, fmt.Errorf("%w: superblock: %v", ErrFatalCorruption, err)
	}
	sb, err := decodeSuperblock(head)
	if err != nil {
		return nil, err
	}

	fsys := &FileSystem{path: path, f: f, sb: sb}

	fsys.inodeBitmap = make(bitmap, bitmapWords(int(sb.NumInodes)))
	fsys.dataBitmap = make(bitmap, bitmapWords(int(sb.NumData)))
	fsys.dirtyInodeBitmap = make(bitmap, len(fsys.inodeBitmap))
	fsys.dirtyDataBitmap = make(bitmap, len(fsys.dataBitmap))

	if err := readBitmap(f, blockByteAddr(uint32(sb.InodeBitmapAddr)), fsys.inodeBitmap); err != nil {
		return nil, fmt.Errorf("%w: inode bitmap: %v", ErrFatalCorruption, err)
	}
	if err := readBitmap(f, blockByteAddr(uint32(sb.DataBitmapAddr)), fsys.dataBitmap); err != nil {
		return nil, fmt.Errorf("%w: data bitmap: %v", ErrFatalCorruption, err)
	}

	fsys.inodes = make([]Inode, sb.NumInodes)
	itableBuf := make([]byte, int64(sb.NumInodes)*inodeSize)
	if err := readAt(f, blockByteAddr(uint32(sb.InodeRegionAddr)), itableBuf); err != nil {
		return nil, fmt.Errorf("%w: inode table: %v", ErrFatalCorruption, err)
	}
	for i := range fsys.inodes {
		ino, err := decodeInode(itableBuf[i*inodeSize : (i+1)*inodeSize])
		if err != nil {
			return nil, fmt.Errorf("%w: inode %d: %v", ErrFatalCorruption, i, err)
		}
		fsys.inodes[i] = ino
	}

	return fsys, nil
}

func readBitmap(dev io.ReaderAt, byteAddr int64, b bitmap) error {
	buf := make([]byte, len(b)*4)
	if err := readAt(dev, byteAddr, buf); err != nil {
		return err
	}
	for i := range b {
		b[i] = byteOrder.Uint32(buf[i*4 : i*4+4])
	}
	return nil
}

// Unmount releases the in-memory buffers and closes (and unlocks) the
// backing image. It does not commit: callers are expected to have already
// had every mutating call flush via its own commit+fsync.
func (fsys *FileSystem) Unmount() error {
	fsys.inodeBitmap = nil
	fsys.dataBitmap = nil
	fsys.dirtyInodeBitmap = nil
	fsys.dirtyDataBitmap = nil
	fsys.inodes = nil
	return fsys.f.Close()
}

// Superblock returns the mounted filesystem's superblock.
func (fsys *FileSystem) Superblock() Superblock {
	return *fsys.sb
}

func (fsys *FileSystem) inodeInRange(inum int32) bool {
	return inum >= 0 && inum < fsys.sb.NumInodes
}

func (fsys *FileSystem) dataInRange(block int32) bool {
	return block >= 0 && block < fsys.sb.NumData
}

func (fsys *FileSystem) markInodeDirty(inum int32) {
	fsys.dirtyInodeBitmap.set(int(inum))
}

func (fsys *FileSystem) markDataDirty(block int32) {
	fsys.dirtyDataBitmap.set(int(block))
}

// dataBlockAddr converts a data-bitmap index into the absolute block
// address stored in direct pointers and used for I/O.
func (fsys *FileSystem) dataBlockAddr(index int32) uint32 {
	return uint32(index) + uint32(fsys.sb.DataRegionAddr)
}
