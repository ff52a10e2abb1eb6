package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/matzehuels/variants/pkg/format"
)

func mustSerialize(t *testing.T, m *Manifest) []byte {
	t.Helper()
	data, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return data
}

func TestFileName(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want string
	}{
		{Descriptor{"cat", 800, format.JPEG}, "cat-800w.jpg"},
		{Descriptor{"cat", 1200, format.PNG}, "cat-1200w.png"},
		{Descriptor{"dog", 2400, format.GIF}, "dog-2400w.gif"},
		{Descriptor{"my photo", 1, format.WEBP}, "my photo-1w.webp"},
		{Descriptor{"logo", 64, format.SVG}, "logo-64w.svg"},
		{Descriptor{"hero", 1800, format.AVIF}, "hero-1800w.avif"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.d.FileName(); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}

	for _, f := range format.All {
		d := Descriptor{BaseName: "x", Width: 10, Format: f}
		if want := "x-10w." + f.Extension(); d.FileName() != want {
			t.Errorf("%s: FileName() = %q, want %q", f, d.FileName(), want)
		}
	}
}

func TestAddVariantIdempotent(t *testing.T) {
	m := New()
	d := Descriptor{BaseName: "cat", Width: 800, Format: format.JPEG}

	if !m.AddVariant(d) {
		t.Error("first AddVariant should change the manifest")
	}
	first := mustSerialize(t, m)

	if m.AddVariant(d) {
		t.Error("second AddVariant should be a no-op")
	}
	second := mustSerialize(t, m)

	if !bytes.Equal(first, second) {
		t.Errorf("serialized output changed:\n%s\n%s", first, second)
	}

	name, ok := m.Lookup("cat", 800, format.JPEG)
	if !ok || name != "cat-800w.jpg" {
		t.Errorf("Lookup = %q, %v; want cat-800w.jpg", name, ok)
	}
}

func TestAddVariantCreatesRecordWithoutLQIP(t *testing.T) {
	m := New()
	m.AddVariant(Descriptor{BaseName: "cat", Width: 800, Format: format.JPEG})

	r, ok := m.Record("cat")
	if !ok {
		t.Fatal("record should exist")
	}
	if r.LQIP != nil {
		t.Error("record created by AddVariant should have no LQIP")
	}
}

func TestAddRecordNeverOverwritesLQIP(t *testing.T) {
	m := New()
	first := &LQIP{Image: "data:image/jpeg;base64,AAAA", Width: 400, Height: 300}

	if !m.AddRecord("cat", first) {
		t.Error("AddRecord should create the record")
	}
	if m.AddRecord("cat", &LQIP{Image: "data:image/png;base64,BBBB", Width: 1, Height: 1}) {
		t.Error("AddRecord should not replace an existing record")
	}
	m.AddRecord("cat", nil)

	r, _ := m.Record("cat")
	if r.LQIP == nil || *r.LQIP != *first {
		t.Errorf("LQIP = %+v, want %+v", r.LQIP, first)
	}

	// Mutating the caller's value must not leak into the manifest.
	first.Width = 9999
	r, _ = m.Record("cat")
	if r.LQIP.Width != 400 {
		t.Error("AddRecord should copy the LQIP")
	}
}

func TestAddRecordKeepsVariants(t *testing.T) {
	m := New()
	m.AddVariant(Descriptor{BaseName: "cat", Width: 800, Format: format.JPEG})
	m.AddRecord("cat", &LQIP{Image: "data:", Width: 1, Height: 1})

	r, _ := m.Record("cat")
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if r.LQIP != nil {
		t.Error("AddRecord on an existing record must leave it unchanged")
	}
}

func TestRecordReturnsCopy(t *testing.T) {
	m := New()
	m.AddVariant(Descriptor{BaseName: "cat", Width: 800, Format: format.JPEG})

	r, _ := m.Record("cat")
	r.Variants[800][format.JPEG] = "tampered"
	delete(r.Variants, 800)

	if name, _ := m.Lookup("cat", 800, format.JPEG); name != "cat-800w.jpg" {
		t.Errorf("Lookup after mutating copy = %q", name)
	}
}

func TestDistinctDescriptorsOrderIndependent(t *testing.T) {
	var descriptors []Descriptor
	for _, base := range []string{"a", "b", "c"} {
		for _, w := range []int{320, 640, 1280} {
			for _, f := range []format.Format{format.JPEG, format.PNG, format.WEBP} {
				descriptors = append(descriptors, Descriptor{base, w, f})
			}
		}
	}

	reference := New()
	for _, d := range descriptors {
		reference.AddVariant(d)
	}
	want := mustSerialize(t, reference)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		shuffled := append([]Descriptor(nil), descriptors...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		m := New()
		var wg sync.WaitGroup
		for _, d := range shuffled {
			wg.Add(2)
			go func() { defer wg.Done(); m.AddVariant(d) }()
			go func() { defer wg.Done(); m.AddVariant(d) }()
		}
		wg.Wait()

		if got := mustSerialize(t, m); !bytes.Equal(got, want) {
			t.Fatalf("run %d: concurrent insertion differs:\n%s\nwant:\n%s", i, got, want)
		}

		total := 0
		for _, name := range m.Names() {
			r, _ := m.Record(name)
			total += r.Count()
		}
		if total != len(descriptors) {
			t.Errorf("run %d: %d entries, want %d", i, total, len(descriptors))
		}
	}
}

func TestSerializeShape(t *testing.T) {
	m := New()
	for _, base := range []string{"cat", "dog"} {
		m.AddRecord(base, &LQIP{Image: "data:image/jpeg;base64,AA==", Width: 4000, Height: 3000})
		for _, w := range []int{800, 1200} {
			for _, f := range []format.Format{format.JPEG, format.WEBP} {
				m.AddVariant(Descriptor{base, w, f})
			}
		}
	}

	var decoded map[string]map[string]json.RawMessage
	if err := json.Unmarshal(mustSerialize(t, m), &decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded) != 2 {
		t.Fatalf("top-level keys = %d, want 2", len(decoded))
	}
	for _, base := range []string{"cat", "dog"} {
		rec, ok := decoded[base]
		if !ok {
			t.Fatalf("missing %q", base)
		}
		widths := 0
		for key, raw := range rec {
			if key == "lqip" {
				var l LQIP
				if err := json.Unmarshal(raw, &l); err != nil {
					t.Fatalf("%s lqip: %v", base, err)
				}
				if l.Width != 4000 || l.Height != 3000 {
					t.Errorf("%s lqip dimensions = %dx%d", base, l.Width, l.Height)
				}
				continue
			}
			widths++
			var formats map[string]string
			if err := json.Unmarshal(raw, &formats); err != nil {
				t.Fatalf("%s/%s: %v", base, key, err)
			}
			if len(formats) != 2 {
				t.Errorf("%s/%s: %d formats, want 2", base, key, len(formats))
			}
			if want := fmt.Sprintf("%s-%sw.jpg", base, key); formats["jpg"] != want {
				t.Errorf("%s/%s jpg = %q, want %q", base, key, formats["jpg"], want)
			}
		}
		if widths != 2 {
			t.Errorf("%s: %d width keys, want 2", base, widths)
		}
	}
}

func TestSerializeNullLQIP(t *testing.T) {
	m := New()
	m.AddRecord("cat", nil)
	m.AddVariant(Descriptor{"cat", 800, format.JPEG})

	want := "{\n  \"cat\": {\n    \"800\": {\n      \"jpg\": \"cat-800w.jpg\"\n    },\n    \"lqip\": null\n  }\n}\n"
	if got := string(mustSerialize(t, m)); got != want {
		t.Errorf("Serialize() =\n%s\nwant:\n%s", got, want)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if got := string(mustSerialize(t, New())); got != "{}\n" {
		t.Errorf("empty manifest = %q", got)
	}
}

func TestMerge(t *testing.T) {
	existing := New()
	existing.AddRecord("cat", &LQIP{Image: "old", Width: 10, Height: 10})
	existing.AddVariant(Descriptor{"cat", 800, format.JPEG})
	existing.AddVariant(Descriptor{"bird", 800, format.PNG})

	m := New()
	m.AddRecord("cat", &LQIP{Image: "new", Width: 20, Height: 20})
	m.AddVariant(Descriptor{"cat", 1200, format.JPEG})
	m.AddRecord("dog", nil)

	m.Merge(existing)
	m.Merge(existing)
	m.Merge(m)
	m.Merge(nil)

	if got := m.Names(); fmt.Sprint(got) != "[bird cat dog]" {
		t.Errorf("Names() = %v", got)
	}
	cat, _ := m.Record("cat")
	if cat.LQIP.Image != "new" {
		t.Errorf("Merge replaced the LQIP: %q", cat.LQIP.Image)
	}
	if fmt.Sprint(cat.Widths()) != "[800 1200]" {
		t.Errorf("cat widths = %v", cat.Widths())
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestAddVariantNilBucket(t *testing.T) {
	m := New()
	m.records["cat"] = &Record{Variants: map[int]map[format.Format]string{800: nil}}

	if !m.AddVariant(Descriptor{BaseName: "cat", Width: 800, Format: format.PNG}) {
		t.Fatal("AddVariant() = false, want true")
	}
	if _, ok := m.Lookup("cat", 800, format.PNG); !ok {
		t.Error("variant missing after AddVariant")
	}
}
