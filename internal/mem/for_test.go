package mem

// BytesDump provides data for testing.
type BytesDump struct {
	Bases []uint
	Sizes []uint
	Pages [][]byte
}

// Dump memory data for testing. Sizes are derived from the page slices,
// since a page's size is just its length.
func (m *Bytes) Dump() (d BytesDump) {
	d.Bases = m.bases
	for _, page := range m.pages {
		d.Sizes = append(d.Sizes, uint(len(page)))
	}
	d.Pages = m.pages
	return d
}
