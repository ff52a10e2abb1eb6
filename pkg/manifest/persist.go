package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/variants/internal/fsutil"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
)

// lqipKey is the reserved record key holding the placeholder.
const lqipKey = "lqip"

// MarshalJSON flattens the record: "lqip" plus one key per width.
func (r *Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Variants)+1)
	obj[lqipKey] = r.LQIP
	for w, formats := range r.Variants {
		obj[strconv.Itoa(w)] = formats
	}
	return json.Marshal(obj)
}

// UnmarshalJSON parses the flattened form written by MarshalJSON. Width keys
// must be positive integers and format keys known extensions.
func (r *Record) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*r = Record{Variants: make(map[int]map[format.Format]string, len(obj))}
	for key, raw := range obj {
		if key == lqipKey {
			if err := json.Unmarshal(raw, &r.LQIP); err != nil {
				return fmt.Errorf("lqip: %w", err)
			}
			continue
		}
		w, err := strconv.Atoi(key)
		if err != nil || w <= 0 {
			return fmt.Errorf("invalid width key %q", key)
		}
		var formats map[format.Format]string
		if err := json.Unmarshal(raw, &formats); err != nil {
			return fmt.Errorf("width %d: %w", w, err)
		}
		if formats == nil {
			formats = make(map[format.Format]string)
		}
		r.Variants[w] = formats
	}
	return nil
}

// MarshalJSON encodes the manifest as an object keyed by base name.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.Marshal(m.records)
}

// UnmarshalJSON replaces the manifest contents.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var records map[string]*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	for base, r := range records {
		if r == nil {
			records[base] = newRecord(nil)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if records == nil {
		records = make(map[string]*Record)
	}
	m.records = records
	return nil
}

// Serialize returns the indented JSON form. Keys are sorted, so equal
// manifests serialize to equal bytes.
func (m *Manifest) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoding, err, "serialize manifest")
	}
	return append(data, '\n'), nil
}

// WriteTo writes the serialized manifest to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Serialize()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Persist writes the manifest to path atomically. The parent directory must
// exist. Any failure is a MANIFEST_WRITE_ERROR.
func (m *Manifest) Persist(path string) error {
	data, err := m.Serialize()
	if err != nil {
		return errors.Wrap(errors.ErrCodeManifestWrite, err, "write manifest %s", path)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeManifestWrite, err, "write manifest %s", path)
	}
	return nil
}

// Read decodes a manifest from r.
func Read(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestRead, err, "read manifest")
	}
	m, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestRead, err, "decode manifest")
	}
	return m, nil
}

// Load reads the manifest at path. A missing file is an error that matches
// fs.ErrNotExist.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestRead, err, "read manifest %s", path)
	}
	m, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestRead, err, "parse manifest %s", path)
	}
	return m, nil
}

func parse(data []byte) (*Manifest, error) {
	m := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
