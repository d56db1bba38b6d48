package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mckt-minecraft/worldtools/world/region"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of converting a directory of region files.
type Result struct {
	// Files holds the outcome per file, ordered by input path.
	Files []FileResult
	// Converted and Failed count the files that were converted and the files
	// that could not be converted.
	Converted, Failed int
	// Duration is the time the whole batch took.
	Duration time.Duration
}

// FileResult is the outcome of converting a single region file.
type FileResult struct {
	In, Out  string
	Err      error
	Duration time.Duration
}

// ConvertBatch converts every file in inDir whose name follows the file name
// convention of from into a file in outDir named after the convention of to.
// Up to Config.Workers files are converted at the same time. A file that
// fails to convert is recorded in the Result and does not stop the others.
// The error returned is only non-nil if the batch could not run at all or ctx
// was cancelled.
func (c *Converter) ConvertBatch(ctx context.Context, from, to region.Format, inDir, outDir string) (Result, error) {
	start := time.Now()
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return Result{}, fmt.Errorf("read input directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	var files []FileResult
	for _, e := range entries {
		if e.IsDir() || !from.Match(e.Name()) {
			continue
		}
		x, z, _ := InferRegionPos(e.Name())
		files = append(files, FileResult{
			In:  filepath.Join(inDir, e.Name()),
			Out: filepath.Join(outDir, to.FileName(x, z)),
		})
	}
	c.conf.Log.Info("Converting directory.", "dir", inDir, "files", len(files), "workers", c.conf.Workers)

	var mu sync.Mutex
	res := Result{Files: files}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.conf.Workers)
	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileStart := time.Now()
			err := c.Convert(from, to, files[i].In, files[i].Out)

			mu.Lock()
			defer mu.Unlock()
			files[i].Err, files[i].Duration = err, time.Since(fileStart)
			if err != nil {
				res.Failed++
			} else {
				res.Converted++
			}
			return nil
		})
	}
	if err = g.Wait(); err == nil {
		err = ctx.Err()
	}
	res.Duration = time.Since(start)
	c.conf.Log.Info("Converted directory.", "converted", res.Converted, "failed", res.Failed, "duration", FormatDuration(res.Duration))
	return res, err
}
