package vsfs

import "fmt"

// commitDirty walks the inode dirty bitmap, writing back the containing
// bitmap word and inode record for every dirty bit, then walks the data
// dirty bitmap writing back its bitmap words. Each dirty bit is cleared
// only once its write succeeds, so a failure midway leaves exactly the
// unwritten work still marked dirty for a future commit to retry — this is
// the engine's entire crash-consistency story (spec §5, §7).
func (fsys *FileSystem) commitDirty() error {
	for i := 0; i < int(fsys.sb.NumInodes); i++ {
		if !fsys.dirtyInodeBitmap.get(i) {
			continue
		}

		word := i / 32
		addr := blockByteAddr(uint32(fsys.sb.InodeBitmapAddr)) + int64(word*4)
		if err := writeAt(fsys.f, addr, fsys.inodeBitmap.wordBytes(word)); err != nil {
			return err
		}

		inoAddr := blockByteAddr(uint32(fsys.sb.InodeRegionAddr)) + int64(i)*inodeSize
		if err := writeAt(fsys.f, inoAddr, fsys.inodes[i].encode()); err != nil {
			return err
		}

		fsys.dirtyInodeBitmap.reset(i)
	}

	for i := 0; i < int(fsys.sb.NumData); i++ {
		if !fsys.dirtyDataBitmap.get(i) {
			continue
		}

		word := i / 32
		addr := blockByteAddr(uint32(fsys.sb.DataBitmapAddr)) + int64(word*4)
		if err := writeAt(fsys.f, addr, fsys.dataBitmap.wordBytes(word)); err != nil {
			return err
		}

		fsys.dirtyDataBitmap.reset(i)
	}

	return nil
}

// commit runs commitDirty and then issues a durability barrier on the
// backing store. Every mutating VSFS operation ends by calling this.
func (fsys *FileSystem) commit() error {
	if err := fsys.commitDirty(); err != nil {
		return fmt.Errorf("vsfs: commit: %w", err)
	}
	if err := fsys.f.Sync(); err != nil {
		return fmt.Errorf("%w: fsync: %v", ErrIO, err)
	}
	return nil
}
