package vsfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// byteOrder is the on-disk byte order for every fixed record in this
// filesystem: superblock, inodes, and directory entries.
var byteOrder = binary.LittleEndian

// Superblock is the fixed ten-field record persisted at block 0 and read
// once at mount. All fields are block counts or addresses except NumInodes
// and NumData, which are item counts.
type Superblock struct {
	InodeBitmapAddr int32
	InodeBitmapLen  int32
	DataBitmapAddr  int32
	DataBitmapLen   int32
	InodeRegionAddr int32
	InodeRegionLen  int32
	DataRegionAddr  int32
	DataRegionLen   int32
	NumInodes       int32
	NumData         int32
}

// superblockSize is the on-disk size of the superblock: ten packed int32
// fields, computed by reflection the same way the field count is walked
// during decode so the two can never drift apart.
func superblockSize() int {
	v := reflect.ValueOf(Superblock{})
	return v.NumField() * 4
}

// decodeSuperblock reads and validates the ten fields of the superblock from
// a raw block-0 buffer.
func decodeSuperblock(buf []byte) (*Superblock, error) {
	sz := superblockSize()
	if len(buf) < sz {
		return nil, fmt.Errorf("%w: superblock short read (%d < %d)", ErrFatalCorruption, len(buf), sz)
	}

	sb := &Superblock{}
	r := bytes.NewReader(buf[:sz])
	v := reflect.ValueOf(sb).Elem()
	for i := 0; i < v.NumField(); i++ {
		if err := binary.Read(r, byteOrder, v.Field(i).Addr().Interface()); err != nil {
			return nil, fmt.Errorf("%w: superblock field %s: %v", ErrFatalCorruption, v.Type().Field(i).Name, err)
		}
	}

	if err := sb.validate(); err != nil {
		return nil, err
	}
	return sb, nil
}

// encode returns the on-disk byte representation of the superblock.
func (sb *Superblock) encode() []byte {
	buf := new(bytes.Buffer)
	v := reflect.ValueOf(*sb)
	for i := 0; i < v.NumField(); i++ {
		binary.Write(buf, byteOrder, v.Field(i).Interface())
	}
	return buf.Bytes()
}

// validate checks the invariants from spec §3: the bitmap/table regions
// must be large enough to hold the declared item counts.
func (sb *Superblock) validate() error {
	if sb.NumInodes < 0 || sb.NumData < 0 {
		return fmt.Errorf("%w: negative item count in superblock", ErrFatalCorruption)
	}
	maxInodes := int64(sb.InodeRegionLen) * BlockSize / inodeSize
	if int64(sb.NumInodes) > maxInodes {
		return fmt.Errorf("%w: num_inodes %d exceeds inode region capacity %d", ErrFatalCorruption, sb.NumInodes, maxInodes)
	}
	maxData := int64(sb.DataRegionLen) * BlockSize * 8
	if int64(sb.NumData) > maxData {
		return fmt.Errorf("%w: num_data %d exceeds data region capacity %d", ErrFatalCorruption, sb.NumData, maxData)
	}
	if int64(bitmapWords(int(sb.NumInodes))*4) > int64(sb.InodeBitmapLen)*BlockSize {
		return fmt.Errorf("%w: inode bitmap region too small for num_inodes", ErrFatalCorruption)
	}
	if int64(bitmapWords(int(sb.NumData))*4) > int64(sb.DataBitmapLen)*BlockSize {
		return fmt.Errorf("%w: data bitmap region too small for num_data", ErrFatalCorruption)
	}
	return nil
}
