package dest

import "strings"

// closeTolerance is the "close enough" window on each dimension, in
// hundredths of millimeters. 176 ≈ 5 PostScript points; printer drivers
// depend on this exact value.
const closeTolerance = 176

// findMedia locates the best candidate for the requested size. Tiers, in
// order: exact key/size-name, exact dimensions, custom-range synthesis,
// close dimensions (±closeTolerance). Returns nil when nothing fits.
func (s *mediaStore) findMedia(name string, width, length int, flags MediaFlags) *MediaEntry {
	if name != "" {
		if entry := s.findByName(name, flags); entry != nil {
			return entry
		}
		if size, ok := pwgSizeForName(name); ok {
			width, length = size.Width, size.Length
		}
	}
	if width <= 0 || length <= 0 {
		return nil
	}

	var exact []*MediaEntry
	for _, entry := range s.entries {
		if entry.Width == width && entry.Length == length {
			exact = append(exact, entry)
		}
	}
	if len(exact) > 0 {
		best := selectByMargins(exact, flags)
		if flags&MediaFlagsExact != 0 && flags&MediaFlagsBorderless != 0 && !best.Borderless() {
			return nil
		}
		return best
	}

	if s.custom != nil && s.custom.contains(width, length) {
		borderlessOK := flags&MediaFlagsBorderless == 0 || (s.custom.left == 0 && s.custom.right == 0 && s.custom.top == 0 && s.custom.bottom == 0)
		if borderlessOK {
			return s.customEntry(width, length)
		}
	}
	if flags&MediaFlagsExact != 0 {
		return nil
	}

	var close []*MediaEntry
	for _, entry := range s.entries {
		if abs(entry.Width-width) <= closeTolerance && abs(entry.Length-length) <= closeTolerance {
			close = append(close, entry)
		}
	}
	if len(close) == 0 {
		return nil
	}
	return selectByMargins(close, flags)
}

// findByName matches the advertised key first, then the size name.
func (s *mediaStore) findByName(name string, flags MediaFlags) *MediaEntry {
	for _, entry := range s.entries {
		if strings.EqualFold(entry.Key, name) {
			if flags&MediaFlagsBorderless != 0 && !entry.Borderless() {
				continue
			}
			return entry
		}
	}
	for _, entry := range s.entries {
		if strings.EqualFold(entry.SizeName, name) {
			if flags&MediaFlagsBorderless != 0 && !entry.Borderless() {
				continue
			}
			return entry
		}
	}
	return nil
}

// selectByMargins picks one entry among same-size candidates using the
// flag-specific margin preference.
func selectByMargins(candidates []*MediaEntry, flags MediaFlags) *MediaEntry {
	best := candidates[0]
	for _, entry := range candidates[1:] {
		switch {
		case flags&MediaFlagsBorderless != 0:
			if marginsBetterBorderless(entry, best) {
				best = entry
			}
		case flags&MediaFlagsDuplex != 0:
			if marginsBetterDuplex(entry, best) {
				best = entry
			}
		default:
			if marginsBetterDefault(entry, best) {
				best = entry
			}
		}
	}
	return best
}

// marginsBetterBorderless prefers smaller margins; true zero wins.
func marginsBetterBorderless(entry, best *MediaEntry) bool {
	return entry.Left <= best.Left && entry.Right <= best.Right &&
		entry.Top <= best.Top && entry.Bottom <= best.Bottom &&
		marginsDiffer(entry, best)
}

// marginsBetterDuplex prefers the largest margins: the candidate must cover
// the incumbent on all four sides and differ on at least one.
func marginsBetterDuplex(entry, best *MediaEntry) bool {
	return entry.Left >= best.Left && entry.Right >= best.Right &&
		entry.Top >= best.Top && entry.Bottom >= best.Bottom &&
		marginsDiffer(entry, best)
}

// marginsBetterDefault prefers the smallest non-zero margin on each side. A
// zero margin is "absent", never "best": a candidate side wins only when it
// is non-zero and no larger than the incumbent, or the incumbent side is
// zero. Borderless entries therefore never displace bordered ones here.
func marginsBetterDefault(entry, best *MediaEntry) bool {
	return ((entry.Left > 0 && entry.Left <= best.Left) || best.Left == 0) &&
		((entry.Right > 0 && entry.Right <= best.Right) || best.Right == 0) &&
		((entry.Top > 0 && entry.Top <= best.Top) || best.Top == 0) &&
		((entry.Bottom > 0 && entry.Bottom <= best.Bottom) || best.Bottom == 0) &&
		marginsDiffer(entry, best)
}

func marginsDiffer(a, b *MediaEntry) bool {
	return a.Left != b.Left || a.Right != b.Right || a.Top != b.Top || a.Bottom != b.Bottom
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
