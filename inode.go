package vsfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// InodeType distinguishes directories from regular files. VSFS has no other
// inode types (no symlinks, devices, or pipes).
type InodeType int32

const (
	TypeDirectory InodeType = 0
	TypeRegular   InodeType = 1
)

func (t InodeType) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeRegular:
		return "regular"
	default:
		return fmt.Sprintf("InodeType(%d)", int32(t))
	}
}

// Inode is the fixed on-disk record describing a single file or directory:
// a type, a byte size, and DirectPtrs direct block pointers. Each pointer
// already includes DataRegionAddr (i.e. it addresses the data region in
// absolute block units) or is the Unused sentinel.
type Inode struct {
	Type   InodeType
	Size   int32
	Direct [DirectPtrs]uint32
}

// inodeSize is the on-disk size of one inode record: two int32 fields plus
// DirectPtrs uint32 pointers (128 bytes in the reference layout).
const inodeSize = 8 + 4*DirectPtrs

// newEmptyInode returns an inode with every direct pointer set to Unused.
func newEmptyInode(typ InodeType) Inode {
	ino := Inode{Type: typ}
	for i := range ino.Direct {
		ino.Direct[i] = Unused
	}
	return ino
}

func decodeInode(buf []byte) (Inode, error) {
	var ino Inode
	r := bytes.NewReader(buf)
	if err := binary.Read(r, byteOrder, &ino.Type); err != nil {
		return ino, err
	}
	if err := binary.Read(r, byteOrder, &ino.Size); err != nil {
		return ino, err
	}
	if err := binary.Read(r, byteOrder, &ino.Direct); err != nil {
		return ino, err
	}
	return ino, nil
}

func (ino *Inode) encode() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(inodeSize)
	binary.Write(buf, byteOrder, ino.Type)
	binary.Write(buf, byteOrder, ino.Size)
	binary.Write(buf, byteOrder, ino.Direct)
	return buf.Bytes()
}

// freeDirectSlot returns the index of the first Unused direct pointer, or
// -1 if the inode already uses all DirectPtrs slots.
func (ino *Inode) freeDirectSlot() int {
	for i, d := range ino.Direct {
		if d == Unused {
			return i
		}
	}
	return -1
}

// full reports whether the inode has used all of its direct pointer
// capacity (size has reached D*BlockSize).
func (ino *Inode) full() bool {
	return int64(ino.Size) >= int64(DirectPtrs)*BlockSize
}
