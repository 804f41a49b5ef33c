package vsfs

// Write writes up to one block's worth of data to a regular file at
// offset, growing the file as needed. Writing past the current size is
// allowed and grows it; writing more than BlockSize bytes in a single call
// is not. As in the original engine, size is incremented by the written
// byte count even when the write overlaps already-written bytes, so
// overwriting a region still advances size — see DESIGN.md for why this
// drift is kept rather than fixed.
func (fsys *FileSystem) Write(inum int32, buf []byte, offset int32, nbytes int32) error {
	if !fsys.inodeInRange(inum) {
		return ErrBadInum
	}
	if !fsys.inodeBitmap.get(int(inum)) {
		return ErrNoSuchInode
	}
	ino := &fsys.inodes[inum]
	if ino.Type != TypeRegular {
		return ErrNotRegular
	}
	if offset < 0 || offset > ino.Size || nbytes <= 0 || nbytes > BlockSize {
		return ErrOutOfRange
	}
	if int64(offset)+int64(nbytes) > int64(DirectPtrs)*BlockSize {
		return ErrOutOfRange
	}

	start := offset / BlockSize
	blockOff := offset % BlockSize
	var cur int32

	fsys.markInodeDirty(inum)

	for i := start; i < DirectPtrs && cur < nbytes; i++ {
		if ino.Direct[i] == Unused {
			block, ok := fsys.allocData()
			if !ok {
				return ErrNoSpace
			}
			ino.Direct[i] = fsys.dataBlockAddr(block)
		}

		n := nbytes - cur
		if n > BlockSize-blockOff {
			n = BlockSize - blockOff
		}

		addr := blockByteAddr(ino.Direct[i]) + int64(blockOff)
		if err := writeAt(fsys.f, addr, buf[cur:cur+n]); err != nil {
			return err
		}

		cur += n
		ino.Size += n
		blockOff = 0
	}

	return fsys.commit()
}
