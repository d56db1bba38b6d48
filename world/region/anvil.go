package region

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/mckt-minecraft/worldtools/internal/nbtconv"
	"github.com/mckt-minecraft/worldtools/internal/progress"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

const (
	sectorSize = 4096
	// headerSize covers the location table and the timestamp table.
	headerSize = 2 * sectorSize
	// maxSectors is the largest sector count a location entry can hold.
	maxSectors = 255
)

// Compression tags of anvil chunk blocks.
const (
	CompressionGzip byte = 1
	CompressionZlib byte = 2
	CompressionNone byte = 3
)

// AnvilRegion stores a region in the sector addressed anvil format. The file
// starts with a table of 1024 big endian location entries, each holding
// (sectorOffset<<8)|sectorCount, followed by a zeroed timestamp table. Each
// chunk block holds the payload length, a compression tag and the compressed
// vanilla dialect NBT of the chunk, padded to a whole number of sectors.
type AnvilRegion struct {
	DirtyGrid
	conf Config
	path string
}

// NewAnvilRegion returns an empty AnvilRegion at region coordinates x, z
// backed by the file at path.
func NewAnvilRegion(x, z int32, path string, conf Config) *AnvilRegion {
	return &AnvilRegion{DirtyGrid: DirtyGrid{Grid: Grid{x: x, z: z}}, conf: conf.withDefaults(), path: path}
}

// locationOffset returns the byte offset of the location entry of the chunk at
// x, z.
func locationOffset(x, z int) int {
	return (z<<5 | x) * 4
}

// Load reads every chunk with a non-zero location entry into its slot and
// marks the slot clean.
func (r *AnvilRegion) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open anvil region: %w", err)
	}
	defer f.Close()
	locations := make([]byte, sectorSize)
	if _, err := io.ReadFull(f, locations); err != nil {
		return fmt.Errorf("read anvil header: %w", err)
	}

	conf := r.conf.chunkConfig()
	p := progress.New(r.conf.Log, "Reading anvil region.", ChunkCount, r.conf.ProgressInterval)
	for x := 0; x < Size; x++ {
		for z := 0; z < Size; z++ {
			p.Step()
			loc := binary.BigEndian.Uint32(locations[locationOffset(x, z):])
			if loc == 0 {
				continue
			}
			m, err := readAnvilChunk(f, int64(loc>>8)*sectorSize)
			if err != nil {
				return fmt.Errorf("read chunk %d, %d: %w", x, z, err)
			}
			c := r.newChunk(conf, x, z)
			if err := c.DecodeVanilla(m); err != nil {
				return fmt.Errorf("decode chunk %d, %d: %w", x, z, err)
			}
			r.SetChunk(x, z, c)
			r.ClearDirty(x, z)
		}
	}
	return nil
}

func readAnvilChunk(f io.ReaderAt, offset int64) (map[string]any, error) {
	var head [5]byte
	if _, err := f.ReadAt(head[:], offset); err != nil {
		return nil, fmt.Errorf("read chunk header at %d: %w", offset, err)
	}
	length := int64(binary.BigEndian.Uint32(head[:4]))
	if length < 1 {
		return nil, fmt.Errorf("chunk at %d has payload length %d", offset, length)
	}
	var src io.Reader = io.NewSectionReader(f, offset+5, length-1)
	switch tag := head[4]; tag {
	case CompressionGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		src = zr
	case CompressionZlib:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		src = zr
	case CompressionNone:
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedCompression, tag)
	}
	return nbtconv.Decode(bufio.NewReader(src))
}

// Save truncates the file and writes every dirty slot that holds a chunk,
// allocating sectors sequentially from sector 2 in ascending slot order.
// Slots that are not dirty are not written.
func (r *AnvilRegion) Save() error {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create anvil region: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	dirty := r.DirtyIndices()
	p := progress.New(r.conf.Log, "Writing anvil region.", len(dirty), r.conf.ProgressInterval)
	sector := headerSize / sectorSize
	var buf bytes.Buffer
	for _, i := range dirty {
		p.Step()
		c := r.chunks[i]
		if c == nil {
			continue
		}
		x, z := slotPos(i)
		count, err := encodeAnvilChunk(&buf, c.EncodeVanilla())
		if err != nil {
			return fmt.Errorf("encode chunk %d, %d: %w", x, z, err)
		}
		if _, err := f.WriteAt(buf.Bytes(), int64(sector)*sectorSize); err != nil {
			return fmt.Errorf("write chunk %d, %d: %w", x, z, err)
		}
		binary.BigEndian.PutUint32(header[locationOffset(x, z):], uint32(sector<<8|count))
		sector += count
	}
	if _, err := f.WriteAt(header, 0); err != nil {
		return fmt.Errorf("write anvil header: %w", err)
	}
	return f.Close()
}

// encodeAnvilChunk writes the zlib compressed chunk block of m to buf, padded
// to whole sectors, and returns the number of sectors it spans.
func encodeAnvilChunk(buf *bytes.Buffer, m map[string]any) (int, error) {
	buf.Reset()
	buf.Write([]byte{0, 0, 0, 0, CompressionZlib})
	zw := zlib.NewWriter(buf)
	if err := nbt.NewEncoderWithEncoding(zw, nbt.BigEndian).Encode(m); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf.Bytes()[:4], uint32(buf.Len()-4))
	// The sector count covers the 4 byte length prefix as well as the
	// payload, so a block never runs into the sector of the next one.
	count := (buf.Len() + sectorSize - 1) / sectorSize
	if count > maxSectors {
		return 0, fmt.Errorf("%w: %d sectors", ErrChunkTooLarge, count)
	}
	buf.Write(make([]byte, count*sectorSize-buf.Len()))
	return count, nil
}

var _ Region = (*AnvilRegion)(nil)
