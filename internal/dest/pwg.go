package dest

import (
	"math"
	"strconv"
	"strings"
)

// Dimensions are hundredths of millimeters throughout, matching the IPP
// media-size encoding.

type pwgSize struct {
	Width  int
	Length int
}

// Fixed sizes a client must be able to resolve without asking the printer.
// PWG 5101.1 names plus the legacy/PPD aliases printers still advertise.
var pwgSizesByName = map[string]pwgSize{
	"na_letter_8.5x11in":        {21590, 27940},
	"na_legal_8.5x14in":         {21590, 35560},
	"na_executive_7.25x10.5in":  {18415, 26670},
	"na_ledger_11x17in":         {27940, 43180},
	"na_invoice_5.5x8.5in":      {13970, 21590},
	"na_number-10_4.125x9.5in":  {10477, 24130},
	"na_monarch_3.875x7.5in":    {9843, 19050},
	"na_index-4x6_4x6in":        {10160, 15240},
	"na_5x7_5x7in":              {12700, 17780},
	"na_index-3x5_3x5in":        {7620, 12700},
	"iso_a3_297x420mm":          {29700, 42000},
	"iso_a4_210x297mm":          {21000, 29700},
	"iso_a5_148x210mm":          {14800, 21000},
	"iso_a6_105x148mm":          {10500, 14800},
	"iso_b4_250x353mm":          {25000, 35300},
	"iso_b5_176x250mm":          {17600, 25000},
	"iso_c5_162x229mm":          {16200, 22900},
	"iso_c6_114x162mm":          {11400, 16200},
	"iso_dl_110x220mm":          {11000, 22000},
	"jis_b5_182x257mm":          {18200, 25700},
	"jpn_hagaki_100x148mm":      {10000, 14800},
	"letter":                    {21590, 27940},
	"legal":                     {21590, 35560},
	"executive":                 {18415, 26670},
	"tabloid":                   {27940, 43180},
	"ledger":                    {27940, 43180},
	"statement":                 {13970, 21590},
	"halfletter":                {13970, 21590},
	"a3":                        {29700, 42000},
	"a4":                        {21000, 29700},
	"a5":                        {14800, 21000},
	"a6":                        {10500, 14800},
	"b4":                        {25000, 35300},
	"b5":                        {17600, 25000},
	"jisb5":                     {18200, 25700},
	"c5":                        {16200, 22900},
	"c6":                        {11400, 16200},
	"dl":                        {11000, 22000},
	"envdl":                     {11000, 22000},
	"env10":                     {10477, 24130},
	"com10":                     {10477, 24130},
	"monarch":                   {9843, 19050},
	"photo":                     {10160, 15240},
	"4x6":                       {10160, 15240},
	"5x7":                       {12700, 17780},
}

var pwgNamesByDims = map[pwgSize]string{
	{21590, 27940}: "na_letter_8.5x11in",
	{21590, 35560}: "na_legal_8.5x14in",
	{18415, 26670}: "na_executive_7.25x10.5in",
	{27940, 43180}: "na_ledger_11x17in",
	{13970, 21590}: "na_invoice_5.5x8.5in",
	{10477, 24130}: "na_number-10_4.125x9.5in",
	{9843, 19050}:  "na_monarch_3.875x7.5in",
	{10160, 15240}: "na_index-4x6_4x6in",
	{12700, 17780}: "na_5x7_5x7in",
	{7620, 12700}:  "na_index-3x5_3x5in",
	{29700, 42000}: "iso_a3_297x420mm",
	{21000, 29700}: "iso_a4_210x297mm",
	{14800, 21000}: "iso_a5_148x210mm",
	{10500, 14800}: "iso_a6_105x148mm",
	{25000, 35300}: "iso_b4_250x353mm",
	{17600, 25000}: "iso_b5_176x250mm",
	{16200, 22900}: "iso_c5_162x229mm",
	{11400, 16200}: "iso_c6_114x162mm",
	{11000, 22000}: "iso_dl_110x220mm",
	{18200, 25700}: "jis_b5_182x257mm",
	{10000, 14800}: "jpn_hagaki_100x148mm",
}

// pwgSizeForName resolves a media name to dimensions. It understands the
// static tables above, self-describing PWG names ("oe_photo-l_3.5x5in"),
// and custom names ("custom_210x297mm", "Custom.612x792").
func pwgSizeForName(name string) (pwgSize, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || isCustomRangeName(key) {
		return pwgSize{}, false
	}
	if size, ok := pwgSizesByName[key]; ok {
		return size, true
	}
	if size, ok := parseCustomSizeName(name); ok {
		return size, true
	}
	return parseSelfDescribingName(key)
}

// pwgNameForSize returns the standard PWG name for known dimensions or a
// self-describing name for everything else.
func pwgNameForSize(width, length int) string {
	if width <= 0 || length <= 0 {
		return ""
	}
	if name, ok := pwgNamesByDims[pwgSize{width, length}]; ok {
		return name
	}
	return pwgFormatSizeName("", "", width, length, "")
}

// parseSelfDescribingName handles "<class>_<name>_<W>x<L><unit>".
func parseSelfDescribingName(name string) (pwgSize, bool) {
	idx := strings.LastIndex(name, "_")
	if idx < 0 || idx == len(name)-1 {
		return pwgSize{}, false
	}
	return parseDimensions(name[idx+1:], "")
}

var customPrefixes = []string{"custom_", "custom."}

func isCustomSizeName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if isCustomRangeName(lower) {
		return false
	}
	for _, prefix := range customPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isCustomRangeName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasPrefix(lower, "custom_min_") || strings.HasPrefix(lower, "custom_max_")
}

// parseCustomSizeName handles the PWG "custom_WxLunit" keyword and the PPD
// "Custom.WxL" form, whose bare numbers are PostScript points.
func parseCustomSizeName(name string) (pwgSize, bool) {
	raw := strings.TrimSpace(name)
	lower := strings.ToLower(raw)
	if isCustomRangeName(lower) {
		return pwgSize{}, false
	}
	switch {
	case strings.HasPrefix(lower, "custom_min_"):
		return pwgSize{}, false
	case strings.HasPrefix(lower, "custom_"):
		return parseDimensions(lower[len("custom_"):], "mm")
	case strings.HasPrefix(lower, "custom."):
		return parseDimensions(lower[len("custom."):], "pt")
	default:
		return pwgSize{}, false
	}
}

// parseCustomRangeName extracts the bounds half of "custom_min_WxLunit" /
// "custom_max_WxLunit" keywords.
func parseCustomRangeName(name string) (pwgSize, bool, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(lower, "custom_min_"):
		size, ok := parseDimensions(lower[len("custom_min_"):], "mm")
		return size, true, ok
	case strings.HasPrefix(lower, "custom_max_"):
		size, ok := parseDimensions(lower[len("custom_max_"):], "mm")
		return size, false, ok
	default:
		return pwgSize{}, false, false
	}
}

func parseDimensions(value, defaultUnits string) (pwgSize, bool) {
	value = strings.TrimSpace(value)
	units := defaultUnits
	for _, suffix := range []string{"mm", "cm", "in", "ft", "pt", "m"} {
		if strings.HasSuffix(value, suffix) {
			units = suffix
			value = strings.TrimSuffix(value, suffix)
			break
		}
	}
	parts := strings.SplitN(value, "x", 2)
	if len(parts) != 2 {
		return pwgSize{}, false
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	l, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return pwgSize{}, false
	}
	scale, ok := unitsToHundredthMM(units)
	if !ok {
		return pwgSize{}, false
	}
	x := int(math.Round(w * scale))
	y := int(math.Round(l * scale))
	if x <= 0 || y <= 0 {
		return pwgSize{}, false
	}
	return pwgSize{x, y}, true
}

func unitsToHundredthMM(units string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "mm":
		return 100.0, true
	case "cm":
		return 1000.0, true
	case "m":
		return 100000.0, true
	case "in":
		return 25.4 * 100.0, true
	case "ft":
		return 12.0 * 25.4 * 100.0, true
	case "pt":
		return 25.4 * 100.0 / 72.0, true
	default:
		return 0, false
	}
}

// formatCustomSizeName builds the "custom_WxLmm" keyword used for sizes
// synthesized from a printer's custom range.
func formatCustomSizeName(width, length int) string {
	if width <= 0 || length <= 0 {
		return ""
	}
	return "custom_" + pwgFormatMillimeters(width) + "x" + pwgFormatMillimeters(length) + "mm"
}

// pwgFormatSizeName composes a PWG self-describing size name. Units are
// chosen by divisibility the way the PWG mapping rules specify; the oe/om
// prefixes mark "other" sizes.
func pwgFormatSizeName(prefix, name string, width, length int, units string) string {
	if width <= 0 || length <= 0 {
		return ""
	}
	if units == "" {
		if width%635 == 0 && length%635 == 0 {
			units = "in"
		} else {
			units = "mm"
		}
	}
	if units != "in" && units != "mm" {
		return ""
	}
	if prefix == "" {
		if units == "in" {
			prefix = "oe"
		} else {
			prefix = "om"
		}
	}
	format := pwgFormatMillimeters
	if units == "in" {
		format = pwgFormatInches
	}
	size := format(width) + "x" + format(length) + units
	if name == "" {
		name = size
	}
	return prefix + "_" + name + "_" + size
}

func pwgFormatInches(val int) string {
	integer := val / 2540
	fraction := ((val%2540)*1000 + 1270) / 2540
	if fraction >= 1000 {
		integer++
		fraction -= 1000
	}
	switch {
	case fraction == 0:
		return strconv.Itoa(integer)
	case fraction%10 != 0:
		return strconv.Itoa(integer) + "." + pad3(fraction)
	case fraction%100 != 0:
		return strconv.Itoa(integer) + "." + pad2(fraction/10)
	default:
		return strconv.Itoa(integer) + "." + strconv.Itoa(fraction/100)
	}
}

func pwgFormatMillimeters(val int) string {
	integer := val / 100
	fraction := val % 100
	switch {
	case fraction == 0:
		return strconv.Itoa(integer)
	case fraction%10 != 0:
		return strconv.Itoa(integer) + "." + pad2(fraction)
	default:
		return strconv.Itoa(integer) + "." + strconv.Itoa(fraction/10)
	}
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func pad3(v int) string {
	switch {
	case v < 10:
		return "00" + strconv.Itoa(v)
	case v < 100:
		return "0" + strconv.Itoa(v)
	default:
		return strconv.Itoa(v)
	}
}
