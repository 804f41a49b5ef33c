// Package vsfs implements the on-disk engine of a Very Simple File System
// (VSFS): a fixed-layout disk image with a superblock, inode and data
// bitmaps, a flat inode table, and a data region addressed through direct
// block pointers only.
//
// The package mounts an existing image (see Format for building one) and
// exposes the five VSFS operations
// — Lookup, Creat, Write, Read, Unlink — as methods on *FileSystem. Every
// mutating call flushes dirty metadata and fsyncs the backing image before
// returning, so there is no separate Commit call in the public API.
package vsfs

// BlockSize is the fixed unit of on-disk addressing and I/O.
const BlockSize = 4096

// DirectPtrs is the number of direct block pointers carried by every inode.
// VSFS has no indirect blocks, so this is also the maximum number of data
// blocks a single file or directory may occupy.
const DirectPtrs = 30

// Unused is the sentinel value for an empty direct pointer slot.
const Unused = 0xFFFFFFFF

// RootInum is the inode number of the filesystem root, always allocated and
// always a directory whose "." and ".." entries both point at itself.
const RootInum = 0
