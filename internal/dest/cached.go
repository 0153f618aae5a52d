package dest

// cachedView projects a built store for iteration/reporting. BORDERLESS
// keeps zero-margin entries only; DUPLEX collapses each distinct size to
// the entry with the maximal covering margins; the default view is every
// entry in discovery order.
func (s *mediaStore) cachedView(flags MediaFlags) []*MediaEntry {
	switch {
	case flags&MediaFlagsBorderless != 0:
		out := []*MediaEntry{}
		for _, entry := range s.order {
			if entry.Borderless() {
				out = append(out, entry)
			}
		}
		return out
	case flags&MediaFlagsDuplex != 0:
		type dims struct{ w, l int }
		seen := map[dims]int{}
		out := []*MediaEntry{}
		for _, entry := range s.order {
			key := dims{entry.Width, entry.Length}
			idx, ok := seen[key]
			if !ok {
				seen[key] = len(out)
				out = append(out, entry)
				continue
			}
			if marginsBetterDuplex(entry, out[idx]) {
				out[idx] = entry
			}
		}
		return out
	default:
		return append([]*MediaEntry(nil), s.order...)
	}
}
