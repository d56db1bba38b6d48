// Package convert converts region files between the region container
// formats, one file at a time or a whole directory at once.
package convert

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mckt-minecraft/worldtools/world/region"
)

// ErrSameFile is returned when the input and the output of a conversion are
// the same file.
var ErrSameFile = errors.New("input and output are the same file")

// Converter converts region files from one format to another. A Converter is
// created by calling Config.New.
type Converter struct {
	conf  Config
	stats *Stats
}

// Stats returns the counters of all conversions run so far.
func (c *Converter) Stats() *Stats { return c.stats }

// Convert converts the region file at in, stored in format from, to a file at
// out in format to. If both formats are the same, the file is copied byte for
// byte. Otherwise the region position is inferred from the name of in, the
// source region is loaded, all of its chunks are handed to a destination
// region and the destination region is saved.
func (c *Converter) Convert(from, to region.Format, in, out string) error {
	start := time.Now()
	log := c.conf.Log.With("file", filepath.Base(in))
	log.Info("Converting region.", "from", from, "to", to)

	chunks, err := c.convert(log, from, to, in, out)
	if err != nil {
		c.stats.fail()
		log.Error("Conversion failed.", "duration", FormatDuration(time.Since(start)), "error", err)
		return err
	}
	c.stats.succeed(chunks)
	attrs := []any{"duration", FormatDuration(time.Since(start))}
	if fi, err := os.Stat(out); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(fi.Size())))
	}
	log.Info("Conversion succeeded.", attrs...)
	return nil
}

func (c *Converter) convert(log *slog.Logger, from, to region.Format, in, out string) (int, error) {
	if sameFile(in, out) {
		return 0, fmt.Errorf("%w: %s", ErrSameFile, in)
	}
	if from == to {
		return 0, copyFile(in, out)
	}
	x, z, ok := InferRegionPos(filepath.Base(in))
	if !ok {
		log.Warn("Could not infer region position from file name, using 0, 0.")
	}
	conf := c.conf.regionConfig()
	src, dst := from.New(x, z, in, conf), to.New(x, z, out, conf)

	log.Debug("Loading chunks.", "x", x, "z", z)
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("load %v region: %w", from, err)
	}
	n := Transfer(src, dst)
	log.Debug("Saving chunks.", "chunks", n)
	// Saving a standard region keeps entries of an existing archive, so any
	// previous output is removed first.
	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("remove previous output: %w", err)
	}
	if err := dst.Save(); err != nil {
		return 0, fmt.Errorf("save %v region: %w", to, err)
	}
	return n, nil
}

// Transfer hands every chunk slot of src over to dst and returns the number of
// chunks transferred. The chunks are shared, not copied: src must not be used
// after the transfer.
func Transfer(src, dst region.Region) int {
	n := 0
	for x := 0; x < region.Size; x++ {
		for z := 0; z < region.Size; z++ {
			c := src.Chunk(x, z)
			dst.SetChunk(x, z, c)
			if c != nil {
				n++
			}
		}
	}
	return n
}

// InferRegionPos reads the region coordinates from a file name such as
// r.-1.2.mca: after a leading run of letters, the next character acts as a
// separator that must occur exactly twice more. The text between the first
// and second and between the second and third separator are parsed as the x
// and z coordinates.
func InferRegionPos(name string) (x, z int32, ok bool) {
	i := strings.IndexFunc(name, func(r rune) bool { return !unicode.IsLetter(r) })
	if i == -1 {
		return 0, 0, false
	}
	sep, size := utf8.DecodeRuneInString(name[i:])
	rest := name[i+size:]
	if strings.Count(rest, string(sep)) != 2 {
		return 0, 0, false
	}
	fields := strings.SplitN(rest, string(sep), 3)
	xv, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	zv, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return int32(xv), int32(zv), true
}

// FormatDuration formats d for humans, using milliseconds for short
// durations, seconds up to a minute and a half and clock notation beyond.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 1500*time.Millisecond:
		return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64) + "ms"
	case d <= 90*time.Second:
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + " seconds"
	case d < time.Hour:
		return fmt.Sprintf("%d:%05.2f minutes", int(d.Minutes()), d.Seconds()-float64(int(d.Minutes())*60))
	}
	return fmt.Sprintf("%d:%02d:%05.2f hours", int(d.Hours()), int(d.Minutes())%60, d.Seconds()-float64(int(d.Minutes())*60))
}

// sameFile reports if paths a and b name the same file. Paths that do not
// exist only match if they are equal once cleaned.
func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
