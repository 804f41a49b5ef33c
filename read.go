package vsfs

// Read copies nbytes starting at offset from inum into out, which must be
// at least nbytes long. Directory reads must be aligned to a directory
// entry boundary. Read never allocates, marks anything dirty, or commits.
func (fsys *FileSystem) Read(inum int32, out []byte, offset int32, nbytes int32) error {
	if !fsys.inodeInRange(inum) {
		return ErrBadInum
	}
	if !fsys.inodeBitmap.get(int(inum)) {
		return ErrNoSuchInode
	}
	ino := &fsys.inodes[inum]

	if offset < 0 || nbytes <= 0 || int64(offset)+int64(nbytes) > int64(ino.Size) {
		return ErrOutOfRange
	}
	if ino.Type == TypeDirectory && offset%dirEntrySize != 0 {
		return ErrOutOfRange
	}

	start := offset / BlockSize
	blockOff := offset % BlockSize
	var cur int32

	for i := start; i < DirectPtrs && cur < nbytes; i++ {
		n := nbytes - cur
		if n > BlockSize-blockOff {
			n = BlockSize - blockOff
		}

		addr := blockByteAddr(ino.Direct[i]) + int64(blockOff)
		if err := readAt(fsys.f, addr, out[cur:cur+n]); err != nil {
			return err
		}

		cur += n
		blockOff = 0
	}

	return nil
}
