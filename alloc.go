package vsfs

// allocInode finds a free inode slot via first-fit, marks it allocated and
// dirty, and returns its index. It does not initialize the inode record
// itself.
func (fsys *FileSystem) allocInode() (int32, bool) {
	i := fsys.inodeBitmap.firstZero(int(fsys.sb.NumInodes))
	if i < 0 {
		return 0, false
	}
	fsys.inodeBitmap.set(i)
	fsys.markInodeDirty(int32(i))
	return int32(i), true
}

// allocData finds a free data-bitmap bit via first-fit, marks it allocated
// and dirty, and returns its bitmap index (not yet offset by
// DataRegionAddr — use dataBlockAddr for that).
func (fsys *FileSystem) allocData() (int32, bool) {
	i := fsys.dataBitmap.firstZero(int(fsys.sb.NumData))
	if i < 0 {
		return 0, false
	}
	fsys.dataBitmap.set(i)
	fsys.markDataDirty(int32(i))
	return int32(i), true
}

// freeInode clears an inode's bitmap bit and marks the word dirty.
func (fsys *FileSystem) freeInode(inum int32) {
	fsys.inodeBitmap.reset(int(inum))
	fsys.markInodeDirty(inum)
}

// freeDataBlock clears a data block's bitmap bit (given its absolute block
// address, as stored in a direct pointer) and marks the word dirty.
func (fsys *FileSystem) freeDataBlock(absBlock uint32) {
	index := int32(absBlock) - fsys.sb.DataRegionAddr
	fsys.dataBitmap.reset(int(index))
	fsys.markDataDirty(index)
}

// readDirBlock reads and decodes the directory block at the given absolute
// block address.
func (fsys *FileSystem) readDirBlock(absBlock uint32) (dirBlock, error) {
	buf := make([]byte, BlockSize)
	if err := readAt(fsys.f, blockByteAddr(absBlock), buf); err != nil {
		return dirBlock{}, err
	}
	return decodeDirBlock(buf), nil
}

// writeDirBlock writes a full directory block to the given absolute block
// address.
func (fsys *FileSystem) writeDirBlock(absBlock uint32, db dirBlock) error {
	return writeAt(fsys.f, blockByteAddr(absBlock), db.encode())
}

// writeDirEntrySlot writes a single directory entry in place, at slot idx of
// the directory block at absBlock. Partial-block writes are acceptable per
// spec §4.6.
func (fsys *FileSystem) writeDirEntrySlot(absBlock uint32, idx int, e dirEntry) error {
	return writeAt(fsys.f, blockByteAddr(absBlock)+int64(idx*dirEntrySize), e.encode())
}
