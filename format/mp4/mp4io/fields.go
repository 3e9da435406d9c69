package mp4io

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved field names with a meaning to the framework.
const (
	FieldVersion  = "version"
	FieldFlags    = "flags"
	FieldTrailing = "trailing"
)

// Parse adds a sibling field right after a value that cannot carry all of its
// bits, and Build writes those bits back. Siblings are only present when needed.
const (
	// FieldReservedSuffix marks the reserved bits of a masked integer that differ from the schema fill.
	FieldReservedSuffix = "_reserved"
	// FieldCodeSuffix marks the raw code of a language that does not re-encode from its letters.
	FieldCodeSuffix = "_code"
)

type Field struct {
	Name  string
	Value any
}

// Fields is an ordered name to value mapping.
type Fields []Field

// NewFields builds Fields from alternating name, value arguments.
func NewFields(kv ...any) Fields {
	if len(kv)%2 != 0 {
		panic("mp4io: NewFields needs name/value pairs")
	}
	fs := make(Fields, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("mp4io: NewFields name %v is not a string", kv[i]))
		}
		fs = append(fs, Field{Name: name, Value: kv[i+1]})
	}
	return fs
}

func (fs Fields) Get(name string) (any, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (fs Fields) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

// Set replaces the value of name or appends it.
func (fs *Fields) Set(name string, v any) {
	for i := range *fs {
		if (*fs)[i].Name == name {
			(*fs)[i].Value = v
			return
		}
	}
	*fs = append(*fs, Field{Name: name, Value: v})
}

func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

func (fs Fields) Uint(name string) uint64 {
	v, _ := fs.Get(name)
	u, _ := toUint64(v)
	return u
}

func (fs Fields) Int(name string) int64 {
	v, _ := fs.Get(name)
	i, _ := toInt64(v)
	return i
}

func (fs Fields) Tag(name string) Tag {
	v, _ := fs.Get(name)
	t, _ := toTag(v)
	return t
}

func (fs Fields) Text(name string) string {
	v, _ := fs.Get(name)
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func (fs Fields) Bytes(name string) []byte {
	v, _ := fs.Get(name)
	b, _ := toBytes(v)
	return b
}

func (fs Fields) Record(name string) Fields {
	v, _ := fs.Get(name)
	r, _ := v.(Fields)
	return r
}

// MarshalJSON keeps declaration order.
func (fs Fields) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
