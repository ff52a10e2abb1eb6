// Package config loads the optional variants config file and merges it with
// command-line flags.
//
// The file is looked up in the source directory as variants.toml,
// variants.yaml or variants.yml (first match wins), or given explicitly with
// --config. TOML is decoded with BurntSushi/toml and YAML with yaml.v3; unknown
// keys are rejected in both.
//
// Precedence for every setting is: flag explicitly set > config file >
// built-in default. Relative paths in a config file are resolved against the
// directory containing the file.
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
	"github.com/matzehuels/variants/pkg/pipeline"
)

// Error codes for config failures.
const (
	// ErrCodeNotFound means an explicitly named config file does not exist.
	ErrCodeNotFound = "CONFIG_NOT_FOUND"

	// ErrCodeInvalid means the file cannot be read or parsed, or a value is
	// out of range.
	ErrCodeInvalid = "CONFIG_INVALID"
)

// FileNames are the config file names looked up in the source directory.
var FileNames = []string{"variants.toml", "variants.yaml", "variants.yml"}

// File is the on-disk config format.
type File struct {
	Dir         string   `toml:"dir" yaml:"dir"`
	OutDir      string   `toml:"out_dir" yaml:"out_dir"`
	Formats     []string `toml:"formats" yaml:"formats"`
	Widths      []int    `toml:"widths" yaml:"widths"`
	Quality     int      `toml:"quality" yaml:"quality"`
	LQIP        *bool    `toml:"lqip" yaml:"lqip"`
	LQIPSize    int      `toml:"lqip_size" yaml:"lqip_size"`
	LQIPBlur    float64  `toml:"lqip_blur" yaml:"lqip_blur"`
	Concurrency int      `toml:"concurrency" yaml:"concurrency"`
	Manifest    string   `toml:"manifest" yaml:"manifest"`
	Merge       *bool    `toml:"merge" yaml:"merge"`
	Recursive   *bool    `toml:"recursive" yaml:"recursive"`
	Exclude     []string `toml:"exclude" yaml:"exclude"`
	Strict      *bool    `toml:"strict" yaml:"strict"`

	Cache CacheFile `toml:"cache" yaml:"cache"`
}

// CacheFile is the [cache] table of the config file.
type CacheFile struct {
	Dir      string `toml:"dir" yaml:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Disabled *bool  `toml:"disabled" yaml:"disabled"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// Overrides holds the flags the user set explicitly. A nil field means the
// flag was not given.
type Overrides struct {
	Dir         *string
	OutDir      *string
	Formats     []string
	Widths      []int
	Quality     *int
	LQIP        *bool
	LQIPSize    *int
	LQIPBlur    *float64
	Concurrency *int
	Manifest    *string
	Merge       *bool
	Recursive   *bool
	Exclude     []string
	Strict      *bool

	CacheDir    *string
	RedisURL    *string
	NoCache     *bool
	CachePrefix *string
}

// Cache is the effective cache configuration.
type Cache struct {
	// Dir is the file cache directory. Empty means the default location.
	Dir      string
	RedisURL string
	Disabled bool
	Prefix   string
}

// Effective is the merged configuration a run consumes directly.
type Effective struct {
	Options pipeline.Options
	Cache   Cache
	Strict  bool

	// File is the config file that was applied, or "" for none.
	File string
}

// Error is a structured config error.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Code == ErrCodeNotFound:
		return fmt.Sprintf("%s: config file %q not found", e.Code, e.Path)
	case e.Err != nil && e.Path != "":
		return fmt.Sprintf("%s: config file %q: %v", e.Code, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the config error code from err, or "" if err is not an *Error.
func Code(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Find returns the first config file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// LoadFile decodes the config file at path. The format follows the extension:
// .yaml and .yml are YAML, anything else is TOML.
func LoadFile(path string) (File, error) {
	var f File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		fh, err := os.Open(path)
		if err != nil {
			return File{}, err
		}
		defer fh.Close()

		dec := yaml.NewDecoder(fh)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !stderrors.Is(err, io.EOF) {
			return File{}, err
		}
	default:
		md, err := toml.DecodeFile(path, &f)
		if err != nil {
			return File{}, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return File{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	return f, nil
}

// Resolve finds and loads the config file and merges it with o.
//
// With explicit == "" the file is looked up in the source directory (the
// --dir flag, or the working directory) and is optional. An explicit path
// must exist.
func Resolve(explicit string, o Overrides) (Effective, error) {
	var (
		path string
		f    File
	)

	if explicit != "" {
		path = explicit
		if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
			return Effective{}, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
	} else {
		lookIn := pipeline.DefaultSourceDir
		if o.Dir != nil {
			lookIn = *o.Dir
		}
		path, _ = Find(lookIn)
	}

	if path != "" {
		var err error
		if f, err = LoadFile(path); err != nil {
			return Effective{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
	}

	eff, err := merge(f, filepath.Dir(path), o)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	eff.File = path
	return eff, nil
}

// merge applies flag > file > default. base anchors relative file paths.
func merge(f File, base string, o Overrides) (Effective, error) {
	var eff Effective
	opts := &eff.Options

	opts.SourceDir = pick(o.Dir, relTo(base, f.Dir), pipeline.DefaultSourceDir)
	opts.OutDir = pick(o.OutDir, relTo(base, f.OutDir), pipeline.DefaultOutDir)
	opts.Quality = pick(o.Quality, f.Quality, pipeline.DefaultQuality)
	if o.Quality != nil {
		// Zero would otherwise read as "use the default".
		if err := errors.ValidateQuality(*o.Quality); err != nil {
			return Effective{}, err
		}
	}
	opts.LQIPSize = pick(o.LQIPSize, f.LQIPSize, 0)
	opts.LQIPBlur = pick(o.LQIPBlur, f.LQIPBlur, 0)
	opts.Concurrency = pick(o.Concurrency, f.Concurrency, 0)
	opts.ManifestName = pick(o.Manifest, f.Manifest, pipeline.DefaultManifestName)
	opts.SkipLQIP = !pickBool(o.LQIP, f.LQIP, true)
	opts.Merge = pickBool(o.Merge, f.Merge, false)
	opts.Recursive = pickBool(o.Recursive, f.Recursive, false)
	eff.Strict = pickBool(o.Strict, f.Strict, false)

	opts.Widths = f.Widths
	if o.Widths != nil {
		opts.Widths = o.Widths
	}
	opts.Exclude = f.Exclude
	if o.Exclude != nil {
		opts.Exclude = o.Exclude
	}

	names := f.Formats
	if o.Formats != nil {
		names = o.Formats
	}
	formats, err := format.ParseList(splitList(names))
	if err != nil {
		return Effective{}, err
	}
	opts.Formats = formats

	eff.Cache = Cache{
		Dir:      pick(o.CacheDir, relTo(base, f.Cache.Dir), ""),
		RedisURL: pick(o.RedisURL, f.Cache.RedisURL, ""),
		Disabled: pickBool(o.NoCache, f.Cache.Disabled, false),
		Prefix:   pick(o.CachePrefix, f.Cache.Prefix, ""),
	}

	// Validate a copy: the real options keep a nil logger so the runner's
	// logger applies.
	probe := eff.Options
	if err := probe.ValidateAndSetDefaults(); err != nil {
		return Effective{}, err
	}
	return eff, nil
}

// pick returns the flag value if set, else the file value if non-zero, else
// def.
func pick[T comparable](flag *T, file, def T) T {
	var zero T
	if flag != nil {
		return *flag
	}
	if file != zero {
		return file
	}
	return def
}

func pickBool(flag, file *bool, def bool) bool {
	if flag != nil {
		return *flag
	}
	if file != nil {
		return *file
	}
	return def
}

// relTo anchors a relative path from the config file at base.
func relTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" || base == "." {
		return p
	}
	return filepath.Join(base, p)
}

// splitList accepts both repeated values and comma-separated entries.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
