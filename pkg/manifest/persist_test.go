package manifest

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
)

func sampleManifest() *Manifest {
	m := New()
	m.AddRecord("cat", &LQIP{Image: "data:image/jpeg;base64,AA==", Width: 640, Height: 480})
	m.AddRecord("logo", nil)
	for _, w := range []int{800, 1200} {
		m.AddVariant(Descriptor{"cat", w, format.JPEG})
		m.AddVariant(Descriptor{"cat", w, format.WEBP})
	}
	m.AddVariant(Descriptor{"logo", 800, format.PNG})
	return m
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	m := sampleManifest()

	if err := m.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, _ := m.Serialize()
	got, _ := loaded.Serialize()
	if !bytes.Equal(got, want) {
		t.Errorf("round trip differs:\n%s\nwant:\n%s", got, want)
	}

	logo, _ := loaded.Record("logo")
	if logo.LQIP != nil {
		t.Error("null lqip should load as nil")
	}
}

func TestPersistUnwritable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing directory", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "missing", "data.json")
		}},
		{"destination is a directory", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "data.json")
			if err := os.Mkdir(p, 0o755); err != nil {
				t.Fatal(err)
			}
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sampleManifest().Persist(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeManifestWrite) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeManifestWrite)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "data.json"))
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
	if !errors.Is(err, errors.ErrCodeManifestRead) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeManifestRead)
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		images  int
		wantErr bool
	}{
		{"empty input", "", 0, false},
		{"empty object", "{}", 0, false},
		{"numeric widths", `{"cat":{"800":{"jpg":"cat-800w.jpg"},"lqip":null}}`, 1, false},
		{"null record", `{"cat":null}`, 1, false},
		{"not an object", `[1,2]`, 0, true},
		{"bad width", `{"cat":{"wide":{"jpg":"x"}}}`, 0, true},
		{"zero width", `{"cat":{"0":{"jpg":"x"}}}`, 0, true},
		{"unknown format", `{"cat":{"800":{"bmp":"x"}}}`, 0, true},
		{"bad lqip", `{"cat":{"lqip":"yes"}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Read(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeManifestRead) {
					t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeManifestRead)
				}
				return
			}
			if m.Len() != tt.images {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.images)
			}
		})
	}
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	m := sampleManifest()
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want, _ := m.Serialize()
	if !bytes.Equal(buf.Bytes(), want) {
		t.Error("WriteTo output differs from Serialize")
	}
}

func TestReadNullWidthBucket(t *testing.T) {
	m, err := Read(strings.NewReader(`{"cat":{"lqip":null,"800":null}}`))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	d := Descriptor{BaseName: "cat", Width: 800, Format: format.JPEG}
	if !m.AddVariant(d) {
		t.Fatal("AddVariant() = false, want insert into the empty bucket")
	}
	if name, ok := m.Lookup("cat", 800, format.JPEG); !ok || name != d.FileName() {
		t.Errorf("Lookup() = %q, %v; want %q", name, ok, d.FileName())
	}

	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"800": {`)) {
		t.Errorf("width bucket should serialize as an object:\n%s", data)
	}
}
