package dest

import (
	"strconv"
	"strings"

	goipp "github.com/OpenPrinting/goipp"
)

// Rule is one advertised constraint or resolver: a name plus the collection
// of option/value members. The collection is borrowed from the owning
// Info's attribute tree, so a Rule never outlives its Info.
type Rule struct {
	Name       string
	Collection goipp.Collection
}

// buildRules walks job-constraints-supported and job-resolvers-supported.
// Collections without a resolver-name member are skipped.
func buildRules(attrs goipp.Attributes) (constraints []Rule, resolvers map[string]Rule) {
	resolvers = map[string]Rule{}
	if attr, ok := findAttribute(attrs, "job-constraints-supported"); ok {
		for _, v := range attr.Values {
			col, ok := v.V.(goipp.Collection)
			if !ok {
				continue
			}
			name := collectionString(col, "resolver-name")
			if name == "" {
				continue
			}
			constraints = append(constraints, Rule{Name: name, Collection: col})
		}
	}
	if attr, ok := findAttribute(attrs, "job-resolvers-supported"); ok {
		for _, v := range attr.Values {
			col, ok := v.V.(goipp.Collection)
			if !ok {
				continue
			}
			name := collectionString(col, "resolver-name")
			if name == "" {
				continue
			}
			resolvers[name] = Rule{Name: name, Collection: col}
		}
	}
	return constraints, resolvers
}

// matches evaluates the rule as a conjunction over the effective option
// values. The second return is false when any member option has no value at
// all, in which case the rule does not apply.
func (r Rule) matches(effective map[string]string) (bool, bool) {
	for _, attr := range r.Collection {
		if attr.Name == "resolver-name" || len(attr.Values) == 0 {
			continue
		}
		value, ok := effective[attr.Name]
		if !ok {
			return false, false
		}
		if !attrValueMatches(attr, value) {
			return false, true
		}
	}
	return true, true
}

// attrValueMatches is the type-directed predicate test: the option's string
// value matches when it equals (under the value tag's semantics) any of the
// attribute's values.
func attrValueMatches(attr goipp.Attribute, value string) bool {
	for _, v := range attr.Values {
		switch val := v.V.(type) {
		case goipp.Integer:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n == int(val) {
				return true
			}
		case goipp.Boolean:
			if (strings.TrimSpace(value) == "true") == bool(val) {
				return true
			}
		case goipp.Range:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= val.Lower && n <= val.Upper {
				return true
			}
		case goipp.Resolution:
			if res, ok := parseResolution(value); ok &&
				res.Xres == val.Xres && res.Yres == val.Yres && res.Units == val.Units {
				return true
			}
		case goipp.Collection:
			if test, ok := DecodeCollection(value); ok && collectionContains(val, test) {
				return true
			}
		default:
			if value == v.V.String() {
				return true
			}
		}
	}
	return false
}

// collectionContains reports whether every member of the predicate
// collection is present in the test collection with all of its values,
// recursing into nested collections. Values compare by rendered text.
func collectionContains(predicate, test goipp.Collection) bool {
	for _, want := range predicate {
		if len(want.Values) == 0 {
			continue
		}
		var have *goipp.Attribute
		for i := range test {
			if test[i].Name == want.Name {
				have = &test[i]
				break
			}
		}
		if have == nil {
			return false
		}
		for _, wv := range want.Values {
			if nested, ok := wv.V.(goipp.Collection); ok {
				found := false
				for _, hv := range have.Values {
					if hc, ok := hv.V.(goipp.Collection); ok && collectionContains(nested, hc) {
						found = true
						break
					}
				}
				if !found {
					return false
				}
				continue
			}
			wanted := renderSingleValue(wv.V)
			found := false
			for _, hv := range have.Values {
				if renderSingleValue(hv.V) == wanted {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func renderSingleValue(v goipp.Value) string {
	var attr goipp.Attribute
	attr.Values.Add(goipp.TagZero, v)
	return renderValues(attr)
}
