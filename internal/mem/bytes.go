package mem

import "fmt"

// DefaultBytesPageSize provides a default for Bytes.PageSize.
const DefaultBytesPageSize = 1024

// Bytes implements a byte-oriented paged memory: a sparse flat address space
// backed by lazily allocated fixed-size pages. It is used as the backing
// store for a Forth data space, where most of the addressable range is never
// touched and need not be materialized.
//
// Pages may not necessarily be the same size, but usually are in practice:
// a page allocated into the gap before an existing neighbor is clamped so
// that pages never overlap, and a page's size is just the length of its
// byte slice.
type Bytes struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint

	// Limit specifies a limit, past which any store or load should result
	// in an error.
	Limit uint

	bases []uint
	pages [][]byte
}

// LimitError indicates that a memory operation, like load or store, exceeded a limit.
type LimitError struct {
	Addr uint
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// Size returns an address one position higher than the last position in the
// last page allocated so far.
func (m *Bytes) Size() uint {
	if i := len(m.bases) - 1; i >= 0 {
		return m.bases[i] + uint(len(m.pages[i]))
	}
	return 0
}

func (m *Bytes) checkLimit(addr uint, op string) error {
	if maxSize := m.Limit; maxSize != 0 && addr > maxSize {
		return LimitError{addr, op}
	}
	return nil
}

// findPage returns the index of the last page whose base address is at or
// below addr (0 when no such page exists yet).
func (m *Bytes) findPage(addr uint) int {
	i, j := 0, len(m.bases)
	for i < j {
		h := int(uint(i+j)>>1) + 1
		if h < len(m.bases) && m.bases[h] <= addr {
			i = h
		} else {
			j = h - 1
		}
	}
	return i
}

// allocPage ensures a page covering addr exists at pageID, allocating and
// inserting one if necessary, and returns its base address and bytes. A
// new page is aligned down to a PageSize boundary, then clamped against
// whichever neighbor it would otherwise overlap.
func (m *Bytes) allocPage(pageID int, addr uint) (uint, []byte) {
	if pageID == len(m.bases) {
		base := addr / m.PageSize * m.PageSize
		size := m.PageSize
		if i := len(m.bases) - 1; i >= 0 {
			lastEnd := m.bases[i] + uint(len(m.pages[i]))
			if base < lastEnd {
				size -= lastEnd - base
				base = lastEnd
			}
		}
		m.bases = append(m.bases, base)
		m.pages = append(m.pages, make([]byte, size))
		return base, m.pages[pageID]
	}

	base := m.bases[pageID]
	if addr < base {
		size := m.PageSize
		nextBase := base
		base = addr / m.PageSize * m.PageSize
		if gapSize := nextBase - base; size > gapSize {
			size = gapSize
		}
		m.bases = append(m.bases, 0)
		m.pages = append(m.pages, nil)
		copy(m.bases[pageID+1:], m.bases[pageID:])
		copy(m.pages[pageID+1:], m.pages[pageID:])
		m.bases[pageID] = base
		m.pages[pageID] = make([]byte, size)
		return base, m.pages[pageID]
	}

	return base, m.pages[pageID]
}

// Load returns a single byte from the given address.
// Unallocated pages are left unallocated, resulting in implicit 0 values.
// Returns an error if addr exceeds any Limit.
func (m *Bytes) Load(addr uint) (byte, error) {
	if err := m.checkLimit(addr, "load"); err != nil {
		return 0, err
	}

	if m.PageSize == 0 || len(m.pages) == 0 {
		return 0, nil
	}

	pageID := m.findPage(addr)
	base := m.bases[pageID]
	page := m.pages[pageID]
	if i := int(addr) - int(base); 0 <= i && i < len(page) {
		return page[i], nil
	}

	return 0, nil
}

// LoadInto reads len(buf) bytes from memory starting at addr.
// Skips any unallocated pages, zeroing the result buffer where encountered.
// Returns an error if Limit would be exceeded; no partial load is done.
func (m *Bytes) LoadInto(addr uint, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	end := addr + uint(len(buf))
	if err := m.checkLimit(end, "load"); err != nil {
		return err
	}

	for pageID := m.findPage(addr); addr < end && pageID < len(m.bases); pageID++ {
		base := m.bases[pageID]
		if base > end {
			break
		}

		if skip := int(base) - int(addr); skip > 0 {
			if skip >= len(buf) {
				break
			}
			addr += uint(skip)
			for i := range buf[:skip] {
				buf[i] = 0
			}
			buf = buf[skip:]
		}

		page := m.pages[pageID]
		if skip := int(addr) - int(base); skip > 0 {
			if skip >= len(page) {
				continue
			}
			base += uint(skip)
			page = page[skip:]
		}

		n := copy(buf, page)
		buf = buf[n:]
		addr += uint(n)
	}

	for i := range buf {
		buf[i] = 0
	}

	return nil
}

// Stor stores any values at addr, allocating pages if necessary.
// Returns an error if Limit would be exceeded; no partial store is done.
func (m *Bytes) Stor(addr uint, values ...byte) error {
	if len(values) == 0 {
		return nil
	}

	end := addr + uint(len(values))
	if err := m.checkLimit(end, "stor"); err != nil {
		return err
	}

	if m.PageSize == 0 {
		m.PageSize = DefaultBytesPageSize
	}

	for pageID := m.findPage(addr); addr < end; pageID++ {
		base, page := m.allocPage(pageID, addr)
		if skip := addr - base; skip > 0 {
			if skip >= uint(len(page)) {
				continue
			}
			page = page[skip:]
		}
		n := copy(page, values)
		values = values[n:]
		addr += uint(n)
	}

	return nil
}
