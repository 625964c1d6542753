package header

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/parsing/field"
)

const DateName = "Date"

type entry struct {
	name   string
	values []string
}

// Header is an ordered collection of header fields. Names are matched case-insensitively and keep the spelling and
// position of their first insertion; iteration yields one pair per value in that order. The zero value is ready to
// use.
type Header struct {
	entries []*entry
	index   map[string]int
}

func New() *Header {
	return &Header{}
}

// key is the index key of name. Field names are ASCII tokens, so lowering is enough for a case-insensitive match.
func key(name string) string {
	return strings.ToLower(name)
}

func validate(name string, value string) error {
	if err := field.ValidateName(name); err != nil {
		return motmedelErrors.New(fmt.Errorf("validate name: %w", err), name)
	}
	if err := field.ValidateValue(value); err != nil {
		return motmedelErrors.New(fmt.Errorf("validate value: %w", err), name)
	}
	return nil
}

func (header *Header) lookup(name string) *entry {
	if header == nil {
		return nil
	}
	i, ok := header.index[key(name)]
	if !ok {
		return nil
	}
	return header.entries[i]
}

func (header *Header) insert(name string) *entry {
	if header.index == nil {
		header.index = make(map[string]int)
	}
	e := &entry{name: name}
	header.index[key(name)] = len(header.entries)
	header.entries = append(header.entries, e)
	return e
}

// Set replaces all values of name with value. A name already present keeps its spelling and position.
func (header *Header) Set(name string, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}

	e := header.lookup(name)
	if e == nil {
		e = header.insert(name)
	}
	e.values = []string{value}

	return nil
}

// Add appends value to the values of name.
func (header *Header) Add(name string, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}

	e := header.lookup(name)
	if e == nil {
		e = header.insert(name)
	}
	e.values = append(e.values, value)

	return nil
}

func (header *Header) Del(name string) {
	if header == nil {
		return
	}

	k := key(name)
	i, ok := header.index[k]
	if !ok {
		return
	}

	header.entries = slices.Delete(header.entries, i, i+1)
	delete(header.index, k)
	for j := i; j < len(header.entries); j++ {
		header.index[key(header.entries[j].name)] = j
	}
}

func (header *Header) Has(name string) bool {
	return header.lookup(name) != nil
}

// Get returns the first value of name, or the empty string.
func (header *Header) Get(name string) string {
	e := header.lookup(name)
	if e == nil || len(e.values) == 0 {
		return ""
	}
	return e.values[0]
}

func (header *Header) Values(name string) []string {
	e := header.lookup(name)
	if e == nil {
		return nil
	}
	return slices.Clone(e.values)
}

// Len is the number of distinct names.
func (header *Header) Len() int {
	if header == nil {
		return 0
	}
	return len(header.entries)
}

func (header *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if header == nil {
			return
		}
		for _, e := range header.entries {
			for _, value := range e.values {
				if !yield(e.name, value) {
					return
				}
			}
		}
	}
}

func (header *Header) Clone() *Header {
	if header == nil {
		return nil
	}

	clone := &Header{
		entries: make([]*entry, len(header.entries)),
		index:   make(map[string]int, len(header.index)),
	}
	for i, e := range header.entries {
		clone.entries[i] = &entry{name: e.name, values: slices.Clone(e.values)}
		clone.index[key(e.name)] = i
	}

	return clone
}

func (header *Header) View() View {
	return View{header: header}
}

// View is a read-only window onto a Header.
type View struct {
	header *Header
}

func (view View) Has(name string) bool {
	return view.header.Has(name)
}

func (view View) Get(name string) string {
	return view.header.Get(name)
}

func (view View) Values(name string) []string {
	return view.header.Values(name)
}

func (view View) Len() int {
	return view.header.Len()
}

func (view View) All() iter.Seq2[string, string] {
	return view.header.All()
}
