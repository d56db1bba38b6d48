package region

import (
	"bufio"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/mckt-minecraft/worldtools/internal/nbtconv"
	"github.com/mckt-minecraft/worldtools/internal/progress"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// LegacyRegion stores all chunks of a region in a single gzip compressed NBT
// compound. Every save rewrites the whole file.
type LegacyRegion struct {
	Grid
	conf Config
	path string
}

// NewLegacyRegion returns an empty LegacyRegion at region coordinates x, z
// backed by the file at path.
func NewLegacyRegion(x, z int32, path string, conf Config) *LegacyRegion {
	return &LegacyRegion{Grid: Grid{x: x, z: z}, conf: conf.withDefaults(), path: path}
}

// Load replaces every slot of the region with the contents of the file.
func (r *LegacyRegion) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open legacy region: %w", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("open legacy region: %w", err)
	}
	defer zr.Close()

	m, err := nbtconv.Decode(zr)
	if err != nil {
		return fmt.Errorf("decode legacy region: %w", err)
	}
	return r.decode(m)
}

// Save writes every non-empty slot of the region to the file.
func (r *LegacyRegion) Save() error {
	m := r.encode()
	r.conf.Log.Debug("Writing legacy region.", "file", r.path, "chunks", r.Len())

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create legacy region: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	zw := gzip.NewWriter(bw)
	if err := nbt.NewEncoderWithEncoding(zw, nbt.BigEndian).Encode(m); err != nil {
		return fmt.Errorf("encode legacy region: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write legacy region: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write legacy region: %w", err)
	}
	return f.Close()
}

func (r *LegacyRegion) encode() map[string]any {
	var present [ChunkCount / 64]uint64
	chunks := make([]map[string]any, 0, r.Len())
	p := progress.New(r.conf.Log, "Serializing legacy region.", ChunkCount, r.conf.ProgressInterval)
	for i, c := range r.chunks {
		if c != nil {
			present[i>>6] |= 1 << (i & 63)
			chunks = append(chunks, c.EncodeNative())
		}
		p.Step()
	}
	return map[string]any{
		"ChunksPresent": nbtconv.LongArray(nbtconv.BitSetWords(present[:])),
		"Chunks":        chunks,
	}
}

func (r *LegacyRegion) decode(m map[string]any) error {
	present, ok, err := nbtconv.Uint64s(m, "ChunksPresent")
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", nbtconv.ErrMissingField, "ChunksPresent")
	}
	chunks, err := nbtconv.Compounds(m, "Chunks")
	if err != nil {
		return err
	}
	conf := r.conf.chunkConfig()
	p := progress.New(r.conf.Log, "Deserializing legacy region.", ChunkCount, r.conf.ProgressInterval)
	next := 0
	for i := range r.chunks {
		p.Step()
		r.chunks[i] = nil
		if i>>6 >= len(present) || present[i>>6]&(1<<(i&63)) == 0 {
			continue
		}
		if next >= len(chunks) {
			return fmt.Errorf("decode legacy region: slot %d flagged present but only %d chunks stored", i, len(chunks))
		}
		x, z := slotPos(i)
		c := r.newChunk(conf, x, z)
		if err := c.DecodeNative(chunks[next]); err != nil {
			return fmt.Errorf("decode chunk %d, %d: %w", x, z, err)
		}
		r.chunks[i] = c
		next++
	}
	return nil
}

var _ Region = (*LegacyRegion)(nil)
