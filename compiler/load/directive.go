package load

import (
	"fmt"
	"go/ast"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Directive names.
const (
	DirectivePrefix     = "//prefkit:"
	DirectiveSchema     = "schema"
	DirectiveConverters = "converters"
)

// Struct tag keys.
const (
	TagDefault = "default"
	TagPrefkit = "prefkit"
)

// Directive is a parsed "//prefkit:<name> key=value ..." comment.
type Directive struct {
	Name string
	Args map[string]string
}

// ParseDirective parses a single comment line. It reports false when the line
// is not a prefkit directive.
func ParseDirective(line string) (*Directive, bool, error) {
	rest, ok := strings.CutPrefix(line, DirectivePrefix)
	if !ok {
		return nil, false, nil
	}
	name, args, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, true, fmt.Errorf("empty directive %q", line)
	}
	parsed, err := ParseArgs(args)
	if err != nil {
		return nil, true, fmt.Errorf("directive %s: %w", name, err)
	}
	return &Directive{Name: name, Args: parsed}, true, nil
}

// findDirective returns the prefkit directive of a comment group, if any.
// Directives are kept out of CommentGroup.Text, so the raw lines are scanned.
func findDirective(groups ...*ast.CommentGroup) (*Directive, *ast.Comment, error) {
	var found *Directive
	var at *ast.Comment
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			d, ok, err := ParseDirective(c.Text)
			if !ok {
				continue
			}
			if err != nil {
				return nil, c, err
			}
			if found != nil {
				return nil, c, fmt.Errorf("duplicate directive //prefkit:%s", d.Name)
			}
			found, at = d, c
		}
	}
	return found, at, nil
}

// ParseArgs parses a list of key=value pairs and bare flags separated by
// commas or spaces. Values may be double-quoted; a backslash escapes the next
// character inside quotes.
//
//	ParseArgs(`id=general expire=24h crypt="a b"`)
//	ParseArgs(`key=tag_set,persist`)
func ParseArgs(s string) (map[string]string, error) {
	result := make(map[string]string)
	var key, value strings.Builder
	inValue, inQuote, quoted := false, false, false

	flush := func() error {
		k := strings.TrimSpace(key.String())
		v := value.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		defer func() {
			key.Reset()
			value.Reset()
			inValue, quoted = false, false
		}()
		if k == "" {
			if inValue || v != "" {
				return fmt.Errorf("missing key before value %q", v)
			}
			return nil
		}
		if _, dup := result[k]; dup {
			return fmt.Errorf("duplicate key %q", k)
		}
		result[k] = v
		return nil
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote:
			switch r {
			case '\\':
				if i+1 < len(runes) {
					i++
					value.WriteRune(runes[i])
				}
			case '"':
				inQuote = false
			default:
				value.WriteRune(r)
			}
		case r == ',' || unicode.IsSpace(r):
			if err := flush(); err != nil {
				return nil, err
			}
		case !inValue && r == '=':
			inValue = true
		case inValue && r == '"' && value.Len() == 0 && !quoted:
			inQuote, quoted = true, true
		case inValue:
			if quoted {
				return nil, fmt.Errorf("unexpected %q after quoted value", r)
			}
			value.WriteRune(r)
		default:
			key.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return result, nil
}

// checkKeys reports the first key of args, in sorted order, not in allowed.
func checkKeys(args map[string]string, allowed ...string) error {
	for _, k := range slices.Sorted(maps.Keys(args)) {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("unknown option %q (allowed: %s)", k, strings.Join(allowed, ", "))
		}
	}
	return nil
}
