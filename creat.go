package vsfs

import (
	"errors"
	"fmt"
)

const maxNameLen = dirNameLen - 1 // 27 usable bytes, NUL not counted here

// Creat creates a new directory or regular file named name inside pinum.
//
// The inode bitmap bit for the new inode is set as soon as a free slot is
// found, before the parent-side data-block reservation is confirmed. This
// mirrors a known latent weakness in the original engine: if creating a
// directory child whose parent also needs a new block fails because only
// one of the two required data blocks was available, the freshly allocated
// inode bit is left set (a leaked, unreachable inode) rather than rolled
// back. It is preserved here as a best-effort allocator — callers are
// expected not to push the image to its capacity.
func (fsys *FileSystem) Creat(pinum int32, typ InodeType, name string) error {
	if !fsys.inodeInRange(pinum) {
		return ErrBadInum
	}
	if !fsys.inodeBitmap.get(int(pinum)) {
		return ErrNoSuchInode
	}
	if fsys.inodes[pinum].Type != TypeDirectory {
		return ErrNotDirectory
	}
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	if typ != TypeDirectory && typ != TypeRegular {
		return fmt.Errorf("%w: invalid inode type %d", ErrOutOfRange, typ)
	}

	switch _, err := fsys.Lookup(pinum, name); {
	case err == nil:
		return ErrAlreadyExists
	case !errors.Is(err, ErrNotFound):
		return err
	}

	// From here on the inode bit is committed even though later checks may
	// still fail — see the doc comment above.
	inum, ok := fsys.allocInode()
	if !ok {
		return ErrNoSpace
	}
	emptyData, emptyData2 := fsys.firstTwoFreeData()
	ino := newEmptyInode(typ)

	parent := fsys.inodes[pinum]
	if parent.full() {
		return ErrNoSpace
	}

	parentHasRoom, err := fsys.dirHasFreeSlot(&parent)
	if err != nil {
		return err
	}

	// dataForParent is whichever reserved data block is left over for the
	// parent's own new directory block, if it turns out to need one.
	var dataForParent int32

	if typ == TypeDirectory {
		if emptyData < 0 {
			return ErrNoSpace
		}
		dataForParent = emptyData2

		fsys.dataBitmap.set(int(emptyData))
		fsys.markDataDirty(emptyData)
		ino.Size = 2 * dirEntrySize
		ino.Direct[0] = fsys.dataBlockAddr(emptyData)

		db := newEmptyDirBlock()
		db[0] = newDirEntry(".", inum)
		db[1] = newDirEntry("..", pinum)
		if err := fsys.writeDirBlock(ino.Direct[0], db); err != nil {
			return err
		}
	} else {
		ino.Size = 0
		dataForParent = emptyData
	}

	fsys.inodes[inum] = ino

	fsys.markInodeDirty(pinum)
	if parentHasRoom {
		if err := fsys.linkIntoExistingBlock(pinum, name, inum); err != nil {
			return err
		}
	} else {
		if dataForParent < 0 {
			return ErrNoSpace
		}
		if err := fsys.linkIntoNewBlock(pinum, name, inum, dataForParent); err != nil {
			return err
		}
	}

	fsys.inodes[pinum].Size += dirEntrySize

	return fsys.commit()
}

// firstTwoFreeData scans the data bitmap once for the two lowest unset
// bits, returning -1 for either that cannot be found.
func (fsys *FileSystem) firstTwoFreeData() (int32, int32) {
	first, second := int32(-1), int32(-1)
	n := int(fsys.sb.NumData)
	for i := 0; i < n; i++ {
		if !fsys.dataBitmap.get(i) {
			if first < 0 {
				first = int32(i)
			} else {
				second = int32(i)
				break
			}
		}
	}
	return first, second
}

// dirHasFreeSlot reports whether ino (a directory) already has an unused
// entry slot in one of its existing direct blocks.
func (fsys *FileSystem) dirHasFreeSlot(ino *Inode) (bool, error) {
	for _, ptr := range ino.Direct {
		if ptr == Unused {
			continue
		}
		db, err := fsys.readDirBlock(ptr)
		if err != nil {
			return false, err
		}
		for _, e := range db {
			if !e.used() {
				return true, nil
			}
		}
	}
	return false, nil
}

// linkIntoExistingBlock writes a single (name, inum) entry into the first
// free slot found across pinum's existing directory blocks.
func (fsys *FileSystem) linkIntoExistingBlock(pinum int32, name string, inum int32) error {
	parent := &fsys.inodes[pinum]
	for _, ptr := range parent.Direct {
		if ptr == Unused {
			continue
		}
		db, err := fsys.readDirBlock(ptr)
		if err != nil {
			return err
		}
		for idx, e := range db {
			if e.used() {
				continue
			}
			return fsys.writeDirEntrySlot(ptr, idx, newDirEntry(name, inum))
		}
	}
	return fmt.Errorf("vsfs: internal: parent had no free slot after room check")
}

// linkIntoNewBlock allocates dataIdx as a fresh directory block holding a
// single (name, inum) entry, attaches it to pinum's first unused direct
// pointer, and marks it dirty.
func (fsys *FileSystem) linkIntoNewBlock(pinum int32, name string, inum int32, dataIdx int32) error {
	addr := fsys.dataBlockAddr(dataIdx)

	db := newEmptyDirBlock()
	db[0] = newDirEntry(name, inum)
	if err := fsys.writeDirBlock(addr, db); err != nil {
		return err
	}

	fsys.dataBitmap.set(int(dataIdx))
	fsys.markDataDirty(dataIdx)

	parent := &fsys.inodes[pinum]
	slot := parent.freeDirectSlot()
	if slot < 0 {
		return ErrNoSpace
	}
	parent.Direct[slot] = addr
	return nil
}
