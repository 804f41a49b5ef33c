package vsfs

// Unlink removes name from directory pinum. A directory may only be
// unlinked while it contains nothing but "." and "..". The child's inode
// and data blocks are freed; the parent's matching entry is cleared, and if
// that was the only live entry in its directory block, the whole block is
// freed too and the parent's pointer to it reset to Unused.
func (fsys *FileSystem) Unlink(pinum int32, name string) error {
	if !fsys.inodeInRange(pinum) {
		return ErrBadInum
	}
	if !fsys.inodeBitmap.get(int(pinum)) {
		return ErrNoSuchInode
	}
	if name == "." || name == ".." {
		return ErrOutOfRange
	}

	inum, err := fsys.Lookup(pinum, name)
	if err != nil {
		return err
	}

	child := &fsys.inodes[inum]
	if child.Type == TypeDirectory && child.Size > 2*dirEntrySize {
		return ErrNotEmpty
	}

	fsys.freeInode(inum)
	for _, ptr := range child.Direct {
		if ptr != Unused {
			fsys.freeDataBlock(ptr)
		}
	}

	fsys.inodes[pinum].Size -= dirEntrySize
	fsys.markInodeDirty(pinum)

	parent := &fsys.inodes[pinum]
	for i, ptr := range parent.Direct {
		if ptr == Unused {
			continue
		}

		db, err := fsys.readDirBlock(ptr)
		if err != nil {
			return err
		}

		matchIdx := -1
		live := 0
		for j, e := range db {
			if !e.used() {
				continue
			}
			live++
			if e.matches(name) {
				matchIdx = j
			}
		}
		if matchIdx < 0 {
			continue
		}

		if live == 1 {
			fsys.freeDataBlock(ptr)
			parent.Direct[i] = Unused
		} else {
			if err := fsys.writeDirEntrySlot(ptr, matchIdx, unusedDirEntry()); err != nil {
				return err
			}
		}
		break
	}

	return fsys.commit()
}
