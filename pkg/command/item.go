package command

import "strings"

// Item is an item or block reference, `[#]namespace:name[state...]{data}`.
// Tag selects an item tag instead of a single item. Data is omitted when nil.
type Item struct {
	Namespace string
	Name      string
	Tag       bool
	State     []SelectorArgument
	Data      Object
}

func (i Item) argument() {}

func (i Item) String() string {
	var b strings.Builder
	if i.Tag {
		b.WriteByte('#')
	}
	b.WriteString(i.Namespace)
	b.WriteByte(':')
	b.WriteString(i.Name)
	if len(i.State) > 0 {
		parts := make([]string, len(i.State))
		for n, s := range i.State {
			parts[n] = s.String()
		}
		b.WriteString("[" + strings.Join(parts, ",") + "]")
	}
	if i.Data != nil {
		b.WriteString(i.Data.String())
	}
	return b.String()
}
