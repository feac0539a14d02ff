// Package descriptor reads and rewrites the JSON version descriptor
// (package.json) of an extension without disturbing unrelated keys.
package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	ErrMissingFile = errors.New("descriptor not found")
	ErrMalformed   = errors.New("malformed descriptor")
)

const (
	KeyName    = "name"
	KeyVersion = "version"
)

type field struct {
	key   string
	value json.RawMessage
}

// Document is a top-level JSON object whose key order survives a
// load/save round trip.
type Document struct {
	fields []field
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformed)
	}

	doc := &Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
		}
		doc.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}
	return doc, nil
}

// Duplicate keys keep their first position and their last value.
func (d *Document) set(key string, value json.RawMessage) {
	for i := range d.fields {
		if d.fields[i].key == key {
			d.fields[i].value = value
			return
		}
	}
	d.fields = append(d.fields, field{key: key, value: value})
}

func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		keys = append(keys, f.key)
	}
	return keys
}

func (d *Document) Raw(key string) (json.RawMessage, bool) {
	for _, f := range d.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

func (d *Document) String(key string) (string, error) {
	raw, ok := d.Raw(key)
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformed, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformed, key)
	}
	return s, nil
}

func (d *Document) SetString(key, value string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	d.set(key, json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")))
	return nil
}

func (d *Document) Name() (string, error) {
	return d.String(KeyName)
}

func (d *Document) Version() (Version, error) {
	s, err := d.String(KeyVersion)
	if err != nil {
		return Version{}, err
	}
	v, err := ParseVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func (d *Document) SetVersion(v Version) error {
	return d.SetString(KeyVersion, v.String())
}

// Marshal renders the document with two-space indentation and a trailing
// newline.
func (d *Document) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, fmt.Errorf("marshal key: %w", err)
		}
		compact.Write(key)
		compact.WriteByte(':')
		if err := json.Compact(&compact, f.value); err != nil {
			return nil, fmt.Errorf("compact %q: %w", f.key, err)
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent descriptor: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}
