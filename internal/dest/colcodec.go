package dest

import (
	"errors"
	"strconv"
	"strings"

	goipp "github.com/OpenPrinting/goipp"
)

// MaxOptionValueLength bounds a single encoded option value. Longer values
// are rejected up front instead of being silently truncated.
const MaxOptionValueLength = 8191

// ErrValueTooLong reports an encoded collection that exceeds
// MaxOptionValueLength.
var ErrValueTooLong = errors.New("option value too long")

// EncodeCollection serializes a collection into the compact option-value
// grammar: {member=value member2="quoted value" nested={...}}.
func EncodeCollection(col goipp.Collection) string {
	var sb strings.Builder
	writeCollection(&sb, col)
	return sb.String()
}

// EncodeCollectionOption is EncodeCollection with the option-value length
// bound applied.
func EncodeCollectionOption(col goipp.Collection) (string, error) {
	s := EncodeCollection(col)
	if len(s) > MaxOptionValueLength {
		return "", ErrValueTooLong
	}
	return s, nil
}

func writeCollection(sb *strings.Builder, col goipp.Collection) {
	sb.WriteByte('{')
	first := true
	for _, attr := range col {
		if attr.Name == "" || len(attr.Values) == 0 {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(attr.Name)
		sb.WriteByte('=')
		for j, v := range attr.Values {
			if j > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, v.T, v.V)
		}
	}
	sb.WriteByte('}')
}

func writeValue(sb *strings.Builder, tag goipp.Tag, value goipp.Value) {
	switch v := value.(type) {
	case goipp.Integer:
		sb.WriteString(strconv.Itoa(int(v)))
	case goipp.Boolean:
		if bool(v) {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case goipp.Range:
		sb.WriteString(strconv.Itoa(v.Lower))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(v.Upper))
	case goipp.Resolution:
		sb.WriteString(formatResolution(v))
	case goipp.Collection:
		writeCollection(sb, v)
	default:
		writeQuoted(sb, value.String())
	}
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' || ch == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte('"')
}

// DecodeCollection parses a brace-delimited collection value back into a
// collection. Members are kept as strings (or nested collections); typed
// comparison happens against rendered predicate values.
func DecodeCollection(value string) (goipp.Collection, bool) {
	value = strings.TrimSpace(value)
	if len(value) < 2 || value[0] != '{' || value[len(value)-1] != '}' {
		return goipp.Collection{}, false
	}
	col, _, ok := decodeCollectionAt(value, 0)
	return col, ok
}

func decodeCollectionAt(s string, i int) (goipp.Collection, int, bool) {
	if i >= len(s) || s[i] != '{' {
		return goipp.Collection{}, i, false
	}
	i++
	col := goipp.Collection{}
	for i < len(s) {
		for i < len(s) && isOptionSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return col, i, false
		}
		if s[i] == '}' {
			return col, i + 1, true
		}
		start := i
		for i < len(s) && s[i] != '=' && s[i] != '}' && !isOptionSpace(s[i]) {
			i++
		}
		name := s[start:i]
		if i >= len(s) || s[i] != '=' {
			continue
		}
		i++
		if i < len(s) && s[i] == '{' {
			nested, next, ok := decodeCollectionAt(s, i)
			if !ok {
				return col, next, false
			}
			col.Add(goipp.MakeAttribute(name, goipp.TagBeginCollection, nested))
			i = next
			continue
		}
		var values []string
		for {
			value, next := decodeMemberValue(s, i)
			values = append(values, value)
			i = next
			if i < len(s) && s[i] == ',' {
				i++
				continue
			}
			break
		}
		attr := goipp.Attribute{Name: name}
		for _, v := range values {
			attr.Values.Add(goipp.TagKeyword, goipp.String(v))
		}
		col = append(col, attr)
	}
	return col, i, false
}

func decodeMemberValue(s string, i int) (string, int) {
	if i < len(s) && s[i] == '"' {
		i++
		var sb strings.Builder
		for i < len(s) {
			ch := s[i]
			if ch == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
				i++
				continue
			}
			if ch == '"' {
				i++
				break
			}
			sb.WriteByte(ch)
			i++
		}
		return sb.String(), i
	}
	start := i
	for i < len(s) && s[i] != ',' && s[i] != '}' && !isOptionSpace(s[i]) {
		i++
	}
	return s[start:i], i
}

// parseResolution accepts "300dpi", "300x600dpi", "118dpcm" and the legacy
// "dpc" spelling of dots-per-centimeter. A bare number is a square dpi
// resolution.
func parseResolution(value string) (goipp.Resolution, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return goipp.Resolution{}, false
	}
	units := goipp.UnitsDpi
	switch {
	case strings.HasSuffix(v, "dpcm"):
		units = goipp.UnitsDpcm
		v = strings.TrimSuffix(v, "dpcm")
	case strings.HasSuffix(v, "dpc"):
		units = goipp.UnitsDpcm
		v = strings.TrimSuffix(v, "dpc")
	case strings.HasSuffix(v, "dpi"):
		v = strings.TrimSuffix(v, "dpi")
	}
	parts := strings.SplitN(v, "x", 2)
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || x <= 0 {
		return goipp.Resolution{}, false
	}
	y := x
	if len(parts) == 2 {
		y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || y <= 0 {
			return goipp.Resolution{}, false
		}
	}
	return goipp.Resolution{Xres: x, Yres: y, Units: units}, true
}

func formatResolution(r goipp.Resolution) string {
	units := "dpi"
	if r.Units == goipp.UnitsDpcm {
		units = "dpcm"
	}
	if r.Xres == r.Yres {
		return strconv.Itoa(r.Xres) + units
	}
	return strconv.Itoa(r.Xres) + "x" + strconv.Itoa(r.Yres) + units
}

// renderValues flattens an attribute's values to the textual form used in
// option lists, joining multiple values with commas.
func renderValues(attr goipp.Attribute) string {
	var sb strings.Builder
	for i, v := range attr.Values {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch val := v.V.(type) {
		case goipp.Collection:
			writeCollection(&sb, val)
		case goipp.Boolean:
			if bool(val) {
				sb.WriteString("true")
			} else {
				sb.WriteString("false")
			}
		case goipp.Range:
			sb.WriteString(strconv.Itoa(val.Lower))
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(val.Upper))
		case goipp.Resolution:
			sb.WriteString(formatResolution(val))
		default:
			sb.WriteString(v.V.String())
		}
	}
	return sb.String()
}
