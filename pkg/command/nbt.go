package command

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// NBT is a value of the substrate's structured metadata format.
// Implementations: Object, Array, String, Number, Bool.
type NBT interface {
	Argument
	nbt()
}

// Entry is a single key of an Object.
type Entry struct {
	Key   string
	Value NBT
}

// Object is an ordered string-keyed compound, rendered `{"k":v,...}`.
type Object []Entry

func (o Object) argument()      {}
func (o Object) nbt()           {}
func (o Object) selectorValue() {}

func (o Object) String() string {
	parts := make([]string, len(o))
	for i, e := range o {
		parts[i] = `"` + e.Key + `":` + e.Value.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Get returns the value stored under key.
func (o Object) Get(key string) (NBT, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Array is an ordered list, rendered `[a,b,...]`.
type Array []NBT

func (a Array) argument() {}
func (a Array) nbt()      {}

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// String is an NBT string. It is JSON-quoted whenever it contains a
// character the substrate would split on; otherwise it is bare unless
// Quote is set.
type String struct {
	Value string
	Quote bool
}

// Word is a bare string, the form used for command keywords.
func Word(v string) String {
	return String{Value: v}
}

// Quoted is a string that is always rendered in quotes.
func Quoted(v string) String {
	return String{Value: v, Quote: true}
}

func (s String) argument() {}
func (s String) nbt()      {}

func (s String) String() string {
	if needsEscaping(s.Value) {
		return quoteJSON(s.Value)
	}
	if s.Quote {
		return `"` + s.Value + `"`
	}
	return s.Value
}

func needsEscaping(v string) bool {
	return strings.IndexFunc(v, func(r rune) bool {
		switch r {
		case ',', '(', ')', '{', '}', '"':
			return true
		}
		return unicode.IsSpace(r)
	}) >= 0
}

// quoteJSON quotes v as a JSON string. HTML characters and non-ASCII
// text are left as is.
func quoteJSON(v string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strconv.Quote(v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NumberKind selects the numeric suffix.
type NumberKind int

const (
	Int NumberKind = iota
	Byte
	Short
	Long
	Float
	Double
)

// Number is a typed NBT number.
type Number struct {
	Kind  NumberKind
	Value float64
}

func (n Number) argument() {}
func (n Number) nbt()      {}

func (n Number) String() string {
	v := formatNumber(n.Value)
	switch n.Kind {
	case Byte:
		return v + "b"
	case Short:
		return v + "s"
	case Long:
		return v + "l"
	case Float:
		return v + "f"
	case Double:
		return v + "d"
	default:
		return v
	}
}

// Bool renders `true` or `false`.
type Bool bool

func (b Bool) argument() {}
func (b Bool) nbt()      {}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
