package vsfs

// Lookup resolves name inside the directory pinum, returning its inode
// number. It walks the parent's direct blocks in order, scanning up to
// size/dirEntrySize live entries (the parent's size is the authoritative
// count across all its directory blocks), and returns the first name match
// byte-for-byte including the NUL terminator.
func (fsys *FileSystem) Lookup(pinum int32, name string) (int32, error) {
	if !fsys.inodeInRange(pinum) {
		return 0, ErrBadInum
	}
	if !fsys.inodeBitmap.get(int(pinum)) {
		return 0, ErrNoSuchInode
	}
	parent := fsys.inodes[pinum]
	if parent.Type != TypeDirectory {
		return 0, ErrNotDirectory
	}

	remaining := int(parent.Size) / dirEntrySize

	for _, ptr := range parent.Direct {
		if remaining == 0 {
			break
		}
		if ptr == Unused {
			continue
		}

		db, err := fsys.readDirBlock(ptr)
		if err != nil {
			return 0, err
		}

		for _, e := range db {
			if remaining == 0 {
				break
			}
			if !e.used() {
				continue
			}
			if e.matches(name) {
				return e.Inum, nil
			}
			remaining--
		}
	}

	return 0, ErrNotFound
}
