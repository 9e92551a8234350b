package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/robinvdvleuten/financetree/branch"
)

// Document is the persisted form of the branch tree: a nested mapping from
// name to child mapping, where an empty mapping is a leaf. Key order is
// significant (it defines display indices) and survives a JSON round trip.
type Document struct {
	entries []Entry
}

// Entry is a single name/children pair of a Document.
type Entry struct {
	Name     string
	Children *Document
}

// NewDocument returns an empty mapping.
func NewDocument() *Document {
	return &Document{}
}

// DefaultDocument returns the document written when no tree file exists:
// the root with no children.
func DefaultDocument() *Document {
	return &Document{entries: []Entry{{Name: branch.Root, Children: NewDocument()}}}
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.entries)
}

// Names returns the keys in order.
func (d *Document) Names() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns the entries in order. The slice must not be modified.
func (d *Document) Entries() []Entry {
	return d.entries
}

// Get returns the child mapping stored under name.
func (d *Document) Get(name string) (*Document, bool) {
	if i := d.index(name); i >= 0 {
		return d.entries[i].Children, true
	}
	return nil, false
}

// At walks the document along p, starting with p's root segment at the top
// level.
func (d *Document) At(p branch.Path) (*Document, bool) {
	cur := d
	for _, name := range p {
		next, ok := cur.Get(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Append adds name with the given children at the end.
func (d *Document) Append(name string, children *Document) error {
	if d.index(name) >= 0 {
		return fmt.Errorf("duplicate key %q", name)
	}
	if children == nil {
		children = NewDocument()
	}
	d.entries = append(d.entries, Entry{Name: name, Children: children})
	return nil
}

// Rename replaces the key oldName with newName at the same position.
func (d *Document) Rename(oldName, newName string) error {
	i := d.index(oldName)
	if i < 0 {
		return fmt.Errorf("no key %q", oldName)
	}
	if d.index(newName) >= 0 {
		return fmt.Errorf("duplicate key %q", newName)
	}
	d.entries[i].Name = newName
	return nil
}

// Remove deletes name and returns its children.
func (d *Document) Remove(name string) (*Document, error) {
	i := d.index(name)
	if i < 0 {
		return nil, fmt.Errorf("no key %q", name)
	}
	removed := d.entries[i].Children
	d.entries = append(d.entries[:i:i], d.entries[i+1:]...)
	return removed, nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{entries: make([]Entry, len(d.entries))}
	for i, e := range d.entries {
		out.entries[i] = Entry{Name: e.Name, Children: e.Children.Clone()}
	}
	return out
}

// Equal reports whether both documents have the same keys in the same order,
// recursively.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, e := range d.entries {
		o := other.entries[i]
		if e.Name != o.Name || !e.Children.Equal(o.Children) {
			return false
		}
	}
	return true
}

func (d *Document) index(name string) int {
	for i, e := range d.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the document as a JSON object, keys in order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := e.Children.encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Every value must
// itself be an object and keys must be unique within an object.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	doc, err := decodeDocument(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after document")
	}
	*d = *doc
	return nil
}

func decodeDocument(dec *json.Decoder) (*Document, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		children, err := decodeDocument(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := doc.Append(name, children); err != nil {
			return nil, err
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}
