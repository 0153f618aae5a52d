package dest

import (
	"strings"

	"cupsdestgolang/internal/model"
)

// ParseOptions splits a command-line style option string into name=value
// pairs. The grammar matches lpr/lp "-o" handling: whitespace separated,
// single or double quoted values, brace-delimited collection values, a bare
// "name" meaning true and "noname" meaning false.
func ParseOptions(line string) []model.Option {
	out := []model.Option{}
	i := 0
	for i < len(line) {
		for i < len(line) && isOptionSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) && line[i] != '=' && !isOptionSpace(line[i]) {
			i++
		}
		name := line[start:i]
		if name == "" {
			i++
			continue
		}
		if i >= len(line) || line[i] != '=' {
			if strings.HasPrefix(name, "no") && len(name) > 2 {
				out = append(out, model.Option{Name: name[2:], Value: "false"})
			} else {
				out = append(out, model.Option{Name: name, Value: "true"})
			}
			continue
		}
		i++ // skip '='
		value, next := parseOptionValue(line, i)
		out = append(out, model.Option{Name: name, Value: value})
		i = next
	}
	return out
}

func parseOptionValue(line string, i int) (string, int) {
	if i >= len(line) {
		return "", i
	}
	switch line[i] {
	case '\'', '"':
		quote := line[i]
		i++
		var sb strings.Builder
		for i < len(line) {
			ch := line[i]
			if ch == '\\' && i+1 < len(line) {
				i++
				sb.WriteByte(line[i])
				i++
				continue
			}
			if ch == quote {
				i++
				break
			}
			sb.WriteByte(ch)
			i++
		}
		return sb.String(), i
	case '{':
		depth := 0
		start := i
		quote := byte(0)
		for i < len(line) {
			ch := line[i]
			if quote != 0 {
				if ch == '\\' && i+1 < len(line) {
					i++
				} else if ch == quote {
					quote = 0
				}
				i++
				continue
			}
			switch ch {
			case '\'', '"':
				quote = ch
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					i++
					return line[start:i], i
				}
			}
			i++
		}
		return line[start:], i
	default:
		start := i
		for i < len(line) && !isOptionSpace(line[i]) {
			i++
		}
		return line[start:i], i
	}
}

// FormatOptions renders options back into the grammar ParseOptions accepts.
// Boolean options come out as the bare/no-prefixed keyword.
func FormatOptions(opts []model.Option) string {
	var sb strings.Builder
	for _, opt := range opts {
		if opt.Name == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		switch opt.Value {
		case "true":
			sb.WriteString(opt.Name)
		case "false":
			sb.WriteString("no")
			sb.WriteString(opt.Name)
		default:
			sb.WriteString(opt.Name)
			sb.WriteByte('=')
			sb.WriteString(quoteOptionValue(opt.Value))
		}
	}
	return sb.String()
}

func quoteOptionValue(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " \t\"'\\") || strings.HasPrefix(value, "{") {
		return value
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch == '\'' || ch == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte('\'')
	return sb.String()
}

// optionsMap flattens an option list into a lookup map; later values win,
// matching cupsAddOption replacement semantics.
func optionsMap(opts []model.Option) map[string]string {
	out := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt.Name == "" {
			continue
		}
		out[opt.Name] = opt.Value
	}
	return out
}

func isOptionSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
