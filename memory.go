package main

import (
	"fmt"

	"github.com/kisforth/kisforth/internal/mem"
)

// memoryError reports an out-of-bounds access; a misaligned cell access is
// an alignmentError instead.
type memoryError struct {
	op   string
	addr uint32
}

func (e memoryError) Error() string {
	return fmt.Sprintf("memory %s out of bounds @%d", e.op, e.addr)
}

type alignmentError struct {
	op   string
	addr uint32
}

func (e alignmentError) Error() string {
	return fmt.Sprintf("unaligned %s @%d", e.op, e.addr)
}

// Space is the flat byte-addressed data space plus the three transient
// region address ranges that sit just above it. It is backed by a sparse
// paged byte store (internal/mem.Bytes) rather than one eagerly allocated
// array, following its internal/mem paging idiom.
type Space struct {
	bytes   mem.Bytes
	memSize uint32
	here    uint32
}

func newSpace(memSize uint32) *Space {
	sp := &Space{memSize: memSize}
	sp.bytes.PageSize = 1024
	sp.bytes.Limit = uint(memSize)
	return sp
}

// Transient region layout: PAD, then WORD buffer, then pictured-output
// buffer, starting just above the data space ceiling.
func (sp *Space) padBase() uint32     { return sp.memSize }
func (sp *Space) wordBase() uint32    { return sp.memSize + padSize }
func (sp *Space) pictureBase() uint32 { return sp.memSize + padSize + wordBufSize }
func (sp *Space) transientEnd() uint32 {
	return sp.memSize + padSize + wordBufSize + pictureBufSize
}

func (sp *Space) inTransient(addr uint32) bool {
	return addr >= sp.memSize && addr < sp.transientEnd()
}

// sysBaseAddr/sysStateAddr are phantom addresses just past the transient
// region: BASE and STATE are dictionary constants that push one of these,
// and System.load/store intercept them directly against the System's own
// base/state fields rather than the byte store, so "BASE @"/"BASE !" work
// through the ordinary fetch/store words without actually backing BASE and
// STATE with data-space memory.
func (sp *Space) sysBaseAddr() uint32  { return sp.transientEnd() }
func (sp *Space) sysStateAddr() uint32 { return sp.transientEnd() + cellSize }

// align rounds HERE up to the next 4-byte boundary.
func (sp *Space) align() {
	if r := sp.here % cellSize; r != 0 {
		sp.here += cellSize - r
	}
}

// allot aligns HERE, reserves n bytes (zeroed), realigns, and returns the
// (aligned) start address. Fails if HERE+n would exceed MEM_SIZE.
func (sp *Space) allot(n uint32) uint32 {
	sp.align()
	start := sp.here
	if uint(start)+uint(n) > uint(sp.memSize) {
		panic(memoryError{"allot", start})
	}
	if n > 0 {
		if err := sp.bytes.Stor(uint(start), make([]byte, n)...); err != nil {
			panic(memoryError{"allot", start})
		}
	}
	sp.here = start + n
	sp.align()
	return start
}

// comma compiles one cell at HERE, advancing it.
func (sp *Space) comma(v int32) {
	addr := sp.allot(cellSize)
	sp.storeAt(addr, v)
}

// cComma compiles one byte at HERE (no alignment), advancing it by one.
func (sp *Space) cComma(b byte) {
	addr := sp.here
	if uint(addr)+1 > uint(sp.memSize) {
		panic(memoryError{"allot", addr})
	}
	if err := sp.bytes.Stor(uint(addr), b); err != nil {
		panic(memoryError{"allot", addr})
	}
	sp.here = addr + 1
}

// storeAt/fetchAt operate purely on the data-space byte store; they never
// see transient addresses. ctx-aware store/fetch (below) route transient
// addresses to the context's buffers first.
func (sp *Space) storeAt(addr uint32, v int32) {
	if addr%cellSize != 0 {
		panic(alignmentError{"store", addr})
	}
	if uint(addr)+cellSize > uint(sp.memSize) {
		panic(memoryError{"store", addr})
	}
	var buf [cellSize]byte
	putCell(buf[:], v)
	if err := sp.bytes.Stor(uint(addr), buf[:]...); err != nil {
		panic(memoryError{"store", addr})
	}
}

func (sp *Space) fetchAt(addr uint32) int32 {
	if addr%cellSize != 0 {
		panic(alignmentError{"fetch", addr})
	}
	if uint(addr)+cellSize > uint(sp.memSize) {
		panic(memoryError{"fetch", addr})
	}
	var buf [cellSize]byte
	if err := sp.bytes.LoadInto(uint(addr), buf[:]); err != nil {
		panic(memoryError{"fetch", addr})
	}
	return getCell(buf[:])
}

func (sp *Space) cStoreAt(addr uint32, b byte) {
	if uint(addr) >= uint(sp.memSize) {
		panic(memoryError{"c_store", addr})
	}
	if err := sp.bytes.Stor(uint(addr), b); err != nil {
		panic(memoryError{"c_store", addr})
	}
}

func (sp *Space) cFetchAt(addr uint32) byte {
	if uint(addr) >= uint(sp.memSize) {
		panic(memoryError{"c_fetch", addr})
	}
	v, err := sp.bytes.Load(uint(addr))
	if err != nil {
		panic(memoryError{"c_fetch", addr})
	}
	return v
}

func (sp *Space) loadBytesAt(addr uint32, buf []byte) {
	if uint(addr)+uint(len(buf)) > uint(sp.memSize) {
		panic(memoryError{"load", addr})
	}
	if err := sp.bytes.LoadInto(uint(addr), buf); err != nil {
		panic(memoryError{"load", addr})
	}
}

func (sp *Space) storeBytesAt(addr uint32, buf []byte) {
	if uint(addr)+uint(len(buf)) > uint(sp.memSize) {
		panic(memoryError{"store", addr})
	}
	if err := sp.bytes.Stor(uint(addr), buf...); err != nil {
		panic(memoryError{"store", addr})
	}
}

// little-endian cell encoding
func putCell(buf []byte, v int32) {
	u := uint32(v)
	buf[0] = byte(u)
	buf[1] = byte(u >> 8)
	buf[2] = byte(u >> 16)
	buf[3] = byte(u >> 24)
}

func getCell(buf []byte) int32 {
	u := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return int32(u)
}
