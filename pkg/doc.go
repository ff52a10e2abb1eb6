// Package pkg provides the core libraries for the variants image generator.
//
// # Overview
//
// Variants turns a directory of source images into responsive derivatives:
// every source is resized to each requested width and re-encoded in each
// requested format, a tiny blurred placeholder (LQIP) is inlined as a data URI,
// and the result is recorded in a JSON manifest (data.json) keyed by image
// base name.
//
// # Architecture
//
// The data flow through a run:
//
//	source directory
//	       ↓
//	  [discover]   list files by extension allow-list
//	       ↓
//	  [pipeline]   derive base names, drop duplicates, fan out per image
//	       ↓
//	  [variant]    width × format cross-product over a bounded pool
//	       ↓            ↘ [codec] decode, placeholder, resize + encode
//	  [manifest]   insert-if-absent records, persisted once
//
// [cache] sits beside [variant]: encoded bytes are keyed by the source content
// hash, so unchanged images are rewritten without decoding.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SourceDir: "./images",
//	    OutDir:    "./public/img",
//	    Formats:   []format.Format{format.JPEG, format.WEBP},
//	    Widths:    []int{640, 1280},
//	})
//
// Per-item failures never stop a run; they are collected in
// pipeline.Result.Failures. Only discovery and the final manifest write are
// fatal.
//
// [discover]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/discover
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/pipeline
// [variant]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/variant
// [codec]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/codec
// [manifest]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/manifest
// [cache]: https://pkg.go.dev/github.com/matzehuels/variants/pkg/cache
package pkg
