package vsfs

import (
	"bytes"
	"encoding/binary"
)

// dirNameLen is the fixed width of a directory entry's name field,
// including the NUL terminator (27 usable bytes).
const dirNameLen = 28

// dirEntrySize is the on-disk size of one directory entry: a 28-byte name
// plus a 32-bit inode number.
const dirEntrySize = dirNameLen + 4

// entriesPerDirBlock is the fixed capacity of a directory block: exactly
// one block's worth of entries (4096 / 32 = 128).
const entriesPerDirBlock = BlockSize / dirEntrySize

// unusedInum marks a directory entry slot as empty.
const unusedInum = -1

// dirEntry is a single directory entry: a NUL-terminated name (at most 27
// usable bytes) and the inode number it refers to, or unusedInum if the
// slot is empty.
type dirEntry struct {
	Name [dirNameLen]byte
	Inum int32
}

func newDirEntry(name string, inum int32) dirEntry {
	var e dirEntry
	copy(e.Name[:dirNameLen-1], name)
	e.Inum = inum
	return e
}

func unusedDirEntry() dirEntry {
	return dirEntry{Inum: unusedInum}
}

func (e dirEntry) used() bool {
	return e.Inum != unusedInum
}

// name returns the entry's name up to (but not including) its NUL
// terminator.
func (e dirEntry) name() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

// matches compares the entry's name byte-for-byte against name, including
// the terminator, as spec §4.5 requires.
func (e dirEntry) matches(name string) bool {
	return e.name() == name
}

func (e dirEntry) encode() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(dirEntrySize)
	buf.Write(e.Name[:])
	binary.Write(buf, byteOrder, e.Inum)
	return buf.Bytes()
}

func decodeDirEntry(buf []byte) dirEntry {
	var e dirEntry
	copy(e.Name[:], buf[:dirNameLen])
	e.Inum = int32(byteOrder.Uint32(buf[dirNameLen : dirNameLen+4]))
	return e
}

// dirBlock is a fixed-capacity array of entriesPerDirBlock directory
// entries occupying exactly one data block.
type dirBlock [entriesPerDirBlock]dirEntry

// newEmptyDirBlock returns a directory block with every slot unused.
func newEmptyDirBlock() dirBlock {
	var db dirBlock
	for i := range db {
		db[i] = unusedDirEntry()
	}
	return db
}

func (db dirBlock) encode() []byte {
	buf := make([]byte, 0, BlockSize)
	for _, e := range db {
		buf = append(buf, e.encode()...)
	}
	return buf
}

func decodeDirBlock(buf []byte) dirBlock {
	var db dirBlock
	for i := range db {
		db[i] = decodeDirEntry(buf[i*dirEntrySize : (i+1)*dirEntrySize])
	}
	return db
}
