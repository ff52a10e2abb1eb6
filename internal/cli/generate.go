package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/variants/internal/config"
	"github.com/matzehuels/variants/pkg/format"
	"github.com/matzehuels/variants/pkg/observability"
	"github.com/matzehuels/variants/pkg/pipeline"
)

// errFailures is returned in strict mode when a run recorded failures.
var errFailures = errors.New("run finished with failures")

// generateFlags holds the raw flag values of the generate command.
type generateFlags struct {
	configPath  string
	dir         string
	outDir      string
	formats     []string
	widths      []int
	quality     int
	noLQIP      bool
	lqipSize    int
	lqipBlur    float64
	concurrency int
	manifest    string
	merge       bool
	recursive   bool
	exclude     []string
	strict      bool

	noCache     bool
	cacheDir    string
	redisURL    string
	cachePrefix string
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate image variants, placeholders and the manifest",
		Long: `Generate resizes every image in the source directory to each requested width and
re-encodes it in each requested format, writing <name>-<width>w.<ext> files and a
manifest (data.json by default) to the output directory.

Settings come from flags, then from variants.toml / variants.yaml in the source
directory (or --config), then from built-in defaults.`,
		Example: `  variants generate -d ./images -o ./public/img
  variants generate -f jpg,webp -w 640,1280 -q 75
  variants generate --merge --no-lqip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "config file (default: variants.toml|yaml in the source dir)")
	flags.StringVarP(&f.dir, "dir", "d", pipeline.DefaultSourceDir, "source image directory")
	flags.StringVarP(&f.outDir, "out-dir", "o", pipeline.DefaultOutDir, "output directory")
	flags.StringSliceVarP(&f.formats, "formats", "f", []string{format.JPEG.String()}, "output formats: "+joinNames())
	flags.IntSliceVarP(&f.widths, "widths", "w", slices.Clone(pipeline.DefaultWidths), "output widths in pixels")
	flags.IntVarP(&f.quality, "quality", "q", pipeline.DefaultQuality, "encode quality for lossy formats (1-100)")
	flags.BoolVar(&f.noLQIP, "no-lqip", false, "skip the inline placeholder")
	flags.IntVar(&f.lqipSize, "lqip-size", pipeline.DefaultLQIPSize, "placeholder bounding box in pixels")
	flags.Float64Var(&f.lqipBlur, "lqip-blur", pipeline.DefaultLQIPBlur, "placeholder blur sigma (negative disables)")
	flags.IntVarP(&f.concurrency, "concurrency", "j", 0, "parallel encodes (default: number of CPUs)")
	flags.StringVar(&f.manifest, "manifest", pipeline.DefaultManifestName, "manifest file name inside the output directory")
	flags.BoolVar(&f.merge, "merge", false, "merge into an existing manifest instead of replacing it")
	flags.BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "directories to skip when recursive")
	flags.BoolVar(&f.strict, "strict", false, "exit non-zero when any image or variant failed")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the encode cache")
	flags.StringVar(&f.cacheDir, "cache-dir", "", "file cache directory (default: ~/.cache/variants)")
	flags.StringVar(&f.redisURL, "redis-url", "", "use a Redis cache, e.g. redis://localhost:6379/0")
	flags.StringVar(&f.cachePrefix, "cache-prefix", "", "namespace for cache keys")

	_ = cmd.RegisterFlagCompletionFunc("formats", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return format.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, f generateFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	eff, err := config.Resolve(f.configPath, f.overrides(cmd.Flags()))
	if err != nil {
		return err
	}
	if eff.File != "" {
		logger.Debug("loaded config", "path", eff.File)
	}

	runner, err := c.newRunner(ctx, eff.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer runner.Close()

	counter := &cacheCounter{}
	observability.SetCacheHooks(counter)
	if c.verbose {
		observability.SetPipelineHooks(&debugHooks{logger: logger})
	}
	defer observability.Reset()

	result, err := runner.Execute(ctx, eff.Options)
	if result != nil {
		printSummary(result, counter, err == nil)
	}
	if err != nil {
		return err
	}
	if eff.Strict && !result.OK() {
		return errFailures
	}
	return nil
}

// overrides reports the flags the user set explicitly.
func (f generateFlags) overrides(fs *pflag.FlagSet) config.Overrides {
	var o config.Overrides
	set := fs.Changed

	if set("dir") {
		o.Dir = &f.dir
	}
	if set("out-dir") {
		o.OutDir = &f.outDir
	}
	if set("formats") {
		o.Formats = f.formats
	}
	if set("widths") {
		o.Widths = f.widths
	}
	if set("quality") {
		o.Quality = &f.quality
	}
	if set("no-lqip") {
		lqip := !f.noLQIP
		o.LQIP = &lqip
	}
	if set("lqip-size") {
		o.LQIPSize = &f.lqipSize
	}
	if set("lqip-blur") {
		o.LQIPBlur = &f.lqipBlur
	}
	if set("concurrency") {
		o.Concurrency = &f.concurrency
	}
	if set("manifest") {
		o.Manifest = &f.manifest
	}
	if set("merge") {
		o.Merge = &f.merge
	}
	if set("recursive") {
		o.Recursive = &f.recursive
	}
	if set("exclude") {
		o.Exclude = f.exclude
	}
	if set("strict") {
		o.Strict = &f.strict
	}
	if set("no-cache") {
		o.NoCache = &f.noCache
	}
	if set("cache-dir") {
		o.CacheDir = &f.cacheDir
	}
	if set("redis-url") {
		o.RedisURL = &f.redisURL
	}
	if set("cache-prefix") {
		o.CachePrefix = &f.cachePrefix
	}
	return o
}
