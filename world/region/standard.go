package region

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/mckt-minecraft/worldtools/internal/nbtconv"
	"github.com/mckt-minecraft/worldtools/internal/progress"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// StandardRegion stores every chunk of a region as a separate entry of a zip
// archive. Entries are named by two base 32 digits, x then z, and hold the
// uncompressed native dialect NBT of the chunk. Saves only touch the entries
// of dirty slots.
type StandardRegion struct {
	DirtyGrid
	conf Config
	path string
}

// NewStandardRegion returns an empty StandardRegion at region coordinates
// x, z backed by the archive at path.
func NewStandardRegion(x, z int32, path string, conf Config) *StandardRegion {
	return &StandardRegion{DirtyGrid: DirtyGrid{Grid: Grid{x: x, z: z}}, conf: conf.withDefaults(), path: path}
}

// Load reads every chunk entry of the archive into its slot and marks the
// slot clean. Entries with other names are ignored.
func (r *StandardRegion) Load() error {
	zr, err := zip.OpenReader(r.path)
	if err != nil {
		return fmt.Errorf("open standard region: %w", err)
	}
	defer zr.Close()

	conf := r.conf.chunkConfig()
	p := progress.New(r.conf.Log, "Reading standard region.", len(zr.File), r.conf.ProgressInterval)
	for _, f := range zr.File {
		p.Step()
		x, z, ok := entryPos(f.Name)
		if !ok {
			continue
		}
		m, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("read chunk %d, %d: %w", x, z, err)
		}
		c := r.newChunk(conf, x, z)
		if err := c.DecodeNative(m); err != nil {
			return fmt.Errorf("decode chunk %d, %d: %w", x, z, err)
		}
		r.SetChunk(x, z, c)
		r.ClearDirty(x, z)
	}
	return nil
}

// Save writes the entries of all dirty slots. Dirty empty slots have their
// entry removed and all other entries are carried over without being
// recompressed. The archive is written to a temporary file next to the
// original and renamed over it once complete.
func (r *StandardRegion) Save() error {
	dir := filepath.Dir(r.path)
	tmp := filepath.Join(dir, "."+filepath.Base(r.path)+"."+uuid.NewString()+".tmp")
	if err := r.writeArchive(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace standard region: %w", err)
	}
	return nil
}

func (r *StandardRegion) writeArchive(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create standard region: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	zw := zip.NewWriter(bw)

	old, err := zip.OpenReader(r.path)
	switch {
	case err == nil:
		defer old.Close()
		for _, e := range old.File {
			if x, z, ok := entryPos(e.Name); ok && r.Dirty(x, z) {
				continue
			}
			if err := zw.Copy(e); err != nil {
				return fmt.Errorf("copy entry %q: %w", e.Name, err)
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("open standard region: %w", err)
	}

	dirty := r.DirtyIndices()
	p := progress.New(r.conf.Log, "Writing standard region.", len(dirty), r.conf.ProgressInterval)
	for _, i := range dirty {
		p.Step()
		c := r.chunks[i]
		if c == nil {
			continue
		}
		x, z := slotPos(i)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entryName(x, z), Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create entry for chunk %d, %d: %w", x, z, err)
		}
		if err := nbt.NewEncoderWithEncoding(w, nbt.BigEndian).Encode(c.EncodeNative()); err != nil {
			return fmt.Errorf("encode chunk %d, %d: %w", x, z, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write standard region: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write standard region: %w", err)
	}
	return f.Close()
}

func readEntry(f *zip.File) (map[string]any, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return nbtconv.Decode(bufio.NewReader(rc))
}

// entryName returns the archive entry name of the chunk at x, z.
func entryName(x, z int) string {
	return strconv.FormatInt(int64(x), 32) + strconv.FormatInt(int64(z), 32)
}

// entryPos parses an archive entry name back into the x, z of its slot.
func entryPos(name string) (x, z int, ok bool) {
	if len(name) != 2 {
		return 0, 0, false
	}
	xv, err := strconv.ParseUint(name[:1], 32, 8)
	if err != nil {
		return 0, 0, false
	}
	zv, err := strconv.ParseUint(name[1:], 32, 8)
	if err != nil {
		return 0, 0, false
	}
	return int(xv), int(zv), true
}

var _ Region = (*StandardRegion)(nil)
