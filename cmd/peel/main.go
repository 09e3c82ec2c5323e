// Command peel preprocesses files into plain decoded byte streams on
// stdout, the same streams the library hands to a downstream search
// tool. Multiple files are decoded with bounded concurrency and
// printed in argument order.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hollowise/peel"
)

func main() {
	var (
		sniff    = pflag.Bool("sniff", false, "detect file types from content in addition to extensions")
		maxDepth = pflag.Int("max-depth", peel.DefaultMaxDepth, "maximum archive recursion depth")
		adapters = pflag.StringSlice("adapters", nil, "adapter names to enable (prefix with - to disable defaults)")
		cacheDir = pflag.String("cache-dir", "", "cache directory (default: user cache dir)")
		noCache  = pflag.Bool("no-cache", false, "disable the decode-result cache")
		maxBlob  = pflag.Int64("cache-max-blob", peel.DefaultMaxBlobLen, "maximum uncompressed size of a cacheable result")
		level    = pflag.Int("compression-level", peel.DefaultCompressionLevel, "zstd level for cache entries")
		jobs     = pflag.Int("jobs", 4, "number of files to decode concurrently")
		verbose  = pflag.Bool("verbose", false, "log adapter selection and cache activity to stderr")
	)
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: peel [flags] FILE...")
		os.Exit(2)
	}

	cfg := peel.DefaultConfig()
	cfg.Sniff = *sniff
	cfg.MaxDepth = *maxDepth
	cfg.Adapters = *adapters
	cfg.Cache.Dir = *cacheDir
	cfg.Cache.Disabled = *noCache
	cfg.Cache.MaxBlobLen = *maxBlob
	cfg.Cache.CompressionLevel = *level
	if *verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, files, *jobs); err != nil {
		fmt.Fprintln(os.Stderr, "peel:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *peel.Config, files []string, jobs int) error {
	if len(files) == 1 {
		return stream(ctx, cfg, files[0], os.Stdout)
	}

	// Decode concurrently but print in argument order.
	bufs := make([]bytes.Buffer, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, f := range files {
		g.Go(func() error {
			return stream(ctx, cfg, f, &bufs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range bufs {
		if _, err := bufs[i].WriteTo(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func stream(ctx context.Context, cfg *peel.Config, file string, w io.Writer) error {
	out, err := peel.PreprocessFile(ctx, file, cfg)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
