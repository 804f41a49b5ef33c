package vsfs

import (
	"fmt"
	"io"
)

// FormatOptions sizes a freshly built image: how many inode slots and data
// blocks its bitmaps and regions should be able to address.
type FormatOptions struct {
	NumInodes int32
	NumData   int32
}

// Format lays out a brand new VSFS image on w: a superblock at block 0,
// zeroed inode and data bitmaps, a zeroed inode table, and an initialized
// root directory (inode 0, a directory whose "." and ".." entries both
// point at itself, occupying the first data block). No mounting happens
// here — callers go through Mount afterwards, same as a freshly-created
// image from the original engine's external disk-image builder.
func Format(w io.WriterAt, opts FormatOptions) (*Superblock, error) {
	if opts.NumInodes <= 0 || opts.NumData <= 0 {
		return nil, fmt.Errorf("vsfs: format: NumInodes and NumData must be positive")
	}

	inodeBitmapBlocks := blocksFor(bitmapWords(int(opts.NumInodes)) * 4)
	dataBitmapBlocks := blocksFor(bitmapWords(int(opts.NumData)) * 4)
	inodeRegionBlocks := blocksFor(int(opts.NumInodes) * inodeSize)

	sb := &Superblock{
		InodeBitmapAddr: 1,
		InodeBitmapLen:  int32(inodeBitmapBlocks),
		NumInodes:       opts.NumInodes,
		NumData:         opts.NumData,
	}
	sb.DataBitmapAddr = sb.InodeBitmapAddr + sb.InodeBitmapLen
	sb.DataBitmapLen = int32(dataBitmapBlocks)
	sb.InodeRegionAddr = sb.DataBitmapAddr + sb.DataBitmapLen
	sb.InodeRegionLen = int32(inodeRegionBlocks)
	sb.DataRegionAddr = sb.InodeRegionAddr + sb.InodeRegionLen
	sb.DataRegionLen = opts.NumData

	if err := writeAt(w, 0, sb.encode()); err != nil {
		return nil, err
	}

	inodeBitmap := make(bitmap, bitmapWords(int(opts.NumInodes)))
	dataBitmap := make(bitmap, bitmapWords(int(opts.NumData)))
	inodeBitmap.set(int(RootInum))
	dataBitmap.set(0)

	if err := writeBitmap(w, blockByteAddr(uint32(sb.InodeBitmapAddr)), inodeBitmap); err != nil {
		return nil, err
	}
	if err := writeBitmap(w, blockByteAddr(uint32(sb.DataBitmapAddr)), dataBitmap); err != nil {
		return nil, err
	}

	root := newEmptyInode(TypeDirectory)
	root.Size = 2 * dirEntrySize
	root.Direct[0] = uint32(sb.DataRegionAddr)

	inodeTable := make([]byte, int64(opts.NumInodes)*inodeSize)
	copy(inodeTable[0:inodeSize], root.encode())
	if err := writeAt(w, blockByteAddr(uint32(sb.InodeRegionAddr)), inodeTable); err != nil {
		return nil, err
	}

	rootDir := newEmptyDirBlock()
	rootDir[0] = newDirEntry(".", RootInum)
	rootDir[1] = newDirEntry("..", RootInum)
	if err := writeAt(w, blockByteAddr(uint32(sb.DataRegionAddr)), rootDir.encode()); err != nil {
		return nil, err
	}

	return sb, nil
}

func blocksFor(bytes int) int {
	return (bytes + BlockSize - 1) / BlockSize
}

func writeBitmap(w io.WriterAt, byteAddr int64, b bitmap) error {
	buf := make([]byte, len(b)*4)
	for i, word := range b {
		byteOrder.PutUint32(buf[i*4:i*4+4], word)
	}
	return writeAt(w, byteAddr, buf)
}
