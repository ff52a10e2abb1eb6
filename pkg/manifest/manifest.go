// Package manifest records which variants exist for each source image.
//
// A [Manifest] maps a base name (the source file stem) to a [Record]. A record
// holds at most one [LQIP] and, per width, the file name generated for each
// format. Every mutation is insert-if-absent: the first writer of a record,
// an LQIP or a (width, format) entry wins, so repeated runs over the same
// inputs produce the same manifest.
//
// # Concurrency
//
// A Manifest is safe for concurrent use. Each mutation holds the manifest
// lock for one insert-or-no-op, so workers may report results directly.
//
// # Persisted Form
//
// The manifest serializes to a JSON object keyed by base name:
//
//	{
//	  "cat": {
//	    "1200": {"jpg": "cat-1200w.jpg", "webp": "cat-1200w.webp"},
//	    "800": {"jpg": "cat-800w.jpg", "webp": "cat-800w.webp"},
//	    "lqip": {"image": "data:image/jpeg;base64,...", "width": 4000, "height": 3000}
//	  }
//	}
//
// Width keys are decimal strings. An image without a placeholder has
// "lqip": null.
package manifest

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/matzehuels/variants/pkg/format"
)

// LQIP is a low-quality inline placeholder.
type LQIP struct {
	// Image is a "data:image/<subtype>;base64,..." URI of the blurred thumbnail.
	Image string `json:"image"`

	// Width and Height are the dimensions of the original source image.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Descriptor identifies one generated variant.
type Descriptor struct {
	BaseName string
	Width    int
	Format   format.Format
}

// FileName returns "<base>-<width>w.<ext>".
func (d Descriptor) FileName() string {
	return d.BaseName + "-" + strconv.Itoa(d.Width) + "w." + d.Format.Extension()
}

// String returns the file name.
func (d Descriptor) String() string {
	return d.FileName()
}

// Record holds everything known about one base name.
type Record struct {
	LQIP     *LQIP
	Variants map[int]map[format.Format]string
}

func newRecord(lqip *LQIP) *Record {
	return &Record{LQIP: lqip, Variants: make(map[int]map[format.Format]string)}
}

// Widths returns the widths present in the record, ascending.
func (r *Record) Widths() []int {
	widths := make([]int, 0, len(r.Variants))
	for w := range r.Variants {
		widths = append(widths, w)
	}
	slices.Sort(widths)
	return widths
}

// Count returns the number of (width, format) entries.
func (r *Record) Count() int {
	n := 0
	for _, formats := range r.Variants {
		n += len(formats)
	}
	return n
}

func (r *Record) clone() *Record {
	out := newRecord(nil)
	if r.LQIP != nil {
		lqip := *r.LQIP
		out.LQIP = &lqip
	}
	for w, formats := range r.Variants {
		bucket := make(map[format.Format]string, len(formats))
		for f, name := range formats {
			bucket[f] = name
		}
		out.Variants[w] = bucket
	}
	return out
}

// insert adds name under (width, f) unless an entry exists. It reports whether
// the record changed.
func (r *Record) insert(width int, f format.Format, name string) bool {
	bucket := r.Variants[width]
	if bucket == nil {
		bucket = make(map[format.Format]string)
		r.Variants[width] = bucket
	}
	if _, exists := bucket[f]; exists {
		return false
	}
	bucket[f] = name
	return true
}

// Manifest is the set of records produced by a run.
type Manifest struct {
	mu      sync.Mutex
	records map[string]*Record
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{records: make(map[string]*Record)}
}

// AddRecord creates a record for base with the given placeholder, which may
// be nil. An existing record, including its LQIP, is left unchanged. It
// reports whether a record was created.
func (m *Manifest) AddRecord(base string, lqip *LQIP) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[base]; ok {
		return false
	}
	if lqip != nil {
		cp := *lqip
		lqip = &cp
	}
	m.records[base] = newRecord(lqip)
	return true
}

// AddVariant records the file name of d. The record and width bucket are
// created as needed; an existing entry for the same width and format is kept.
// It reports whether the manifest changed.
func (m *Manifest) AddVariant(d Descriptor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[d.BaseName]
	if !ok {
		r = newRecord(nil)
		m.records[d.BaseName] = r
	}
	return r.insert(d.Width, d.Format, d.FileName())
}

// Merge adds every record of other with the same insert-if-absent rules as
// AddRecord and AddVariant: an existing record keeps its LQIP and gains only
// the (width, format) entries it lacks. File names are copied as stored in
// other.
func (m *Manifest) Merge(other *Manifest) {
	if other == nil || other == m {
		return
	}
	snapshot := other.snapshot()

	m.mu.Lock()
	defer m.mu.Unlock()

	for base, src := range snapshot {
		dst, ok := m.records[base]
		if !ok {
			m.records[base] = src
			continue
		}
		for w, formats := range src.Variants {
			for f, name := range formats {
				dst.insert(w, f, name)
			}
		}
	}
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Names returns the base names, sorted.
func (m *Manifest) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Record returns a copy of the record for base.
func (m *Manifest) Record(base string) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[base]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// Lookup returns the file name stored for (base, width, f).
func (m *Manifest) Lookup(base string, width int, f format.Format) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[base]
	if !ok {
		return "", false
	}
	name, ok := r.Variants[width][f]
	return name, ok
}

// snapshot deep-copies the records under the lock.
func (m *Manifest) snapshot() map[string]*Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Record, len(m.records))
	for base, r := range m.records {
		out[base] = r.clone()
	}
	return out
}

// String returns a short summary for logs.
func (m *Manifest) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	variants := 0
	for _, r := range m.records {
		variants += r.Count()
	}
	return fmt.Sprintf("manifest(%d images, %d variants)", len(m.records), variants)
}
