package dest

import (
	"strings"

	goipp "github.com/OpenPrinting/goipp"
)

// stringOptions lists options whose "-supported" attribute advertises a
// maximum length as a plain integer rather than an enumerated value set.
// This mirrors the standard IPP job template mapping table.
var stringOptions = map[string]bool{
	"job-name":                  true,
	"document-name":             true,
	"job-originating-user-name": true,
	"requesting-user-name":      true,
	"job-message-to-operator":   true,
	"job-sheet-message":         true,
	"output-device":             true,
	"job-password":              true,
}

// CheckSupported reports whether option (or option=value) is within the
// destination's advertised capabilities. With an empty value it is a pure
// existence check on the "-supported" attribute.
func (d *Info) CheckSupported(option, value string) bool {
	option = strings.TrimSpace(option)
	if option == "" {
		return false
	}
	attrName := option
	if !strings.HasSuffix(attrName, "-supported") {
		attrName += "-supported"
	}
	attr, ok := findAttribute(d.attrs, attrName)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	if len(value) > MaxOptionValueLength {
		return false
	}

	base := strings.TrimSuffix(attrName, "-supported")

	// A custom media name checks against the advertised custom range
	// keywords instead of plain keyword equality.
	if (base == "media" || base == "media-ready") && isCustomSizeName(value) {
		if supportedCustomMedia(attr, value) {
			return true
		}
	}

	// Integer-valued "-supported" for a string-typed option is a length
	// bound, not a value set.
	if stringOptions[base] {
		if bound, isInt := intValue(attr); isInt {
			return len(value) <= bound
		}
	}

	return attrValueMatches(attr, value)
}

// supportedCustomMedia range-checks custom_WxHunit names against paired
// custom_min_*/custom_max_* entries in the supported list.
func supportedCustomMedia(attr goipp.Attribute, value string) bool {
	size, ok := parseCustomSizeName(value)
	if !ok {
		return false
	}
	var min, max pwgSize
	var haveMin, haveMax bool
	for _, v := range attr.Values {
		name := strings.TrimSpace(v.V.String())
		bounds, isMin, ok := parseCustomRangeName(name)
		if !ok {
			continue
		}
		if isMin {
			min, haveMin = bounds, true
		} else {
			max, haveMax = bounds, true
		}
	}
	if !haveMin || !haveMax {
		return false
	}
	return size.Width >= min.Width && size.Width <= max.Width &&
		size.Length >= min.Length && size.Length <= max.Length
}

func intValue(attr goipp.Attribute) (int, bool) {
	if len(attr.Values) == 0 {
		return 0, false
	}
	if v, ok := attr.Values[0].V.(goipp.Integer); ok {
		return int(v), true
	}
	return 0, false
}
