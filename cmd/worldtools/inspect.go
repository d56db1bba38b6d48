package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/mckt-minecraft/worldtools/convert"
	"github.com/mckt-minecraft/worldtools/world/chunk"
	"github.com/mckt-minecraft/worldtools/world/region"
)

func runInspect(e env, args []string) error {
	format, err := parseFormat(e.log, args[0])
	if err != nil {
		return err
	}
	path := args[1]
	x, z, ok := convert.InferRegionPos(filepath.Base(path))
	if !ok {
		e.log.Warn("Could not infer region position from file name, using 0, 0.", "file", path)
	}
	r := format.New(x, z, path, region.Config{Log: e.log, Air: e.conf.Air, ProgressInterval: e.conf.ProgressInterval})
	if err := r.Load(); err != nil {
		e.log.Error("Cannot load region.", "file", path, "error", err)
		return exitError{code: 1}
	}

	if len(args) < 4 {
		printRegion(e.stdout, r)
		return nil
	}
	cx, errX := strconv.Atoi(args[2])
	cz, errZ := strconv.Atoi(args[3])
	if errX != nil || errZ != nil || cx < 0 || cx >= region.Size || cz < 0 || cz >= region.Size {
		e.log.Error("Chunk position must be two numbers from 0 to 31.", "x", args[2], "z", args[3])
		return exitError{code: 1}
	}
	c := r.Chunk(cx, cz)
	if c == nil {
		e.log.Error("No chunk stored at position.", "x", cx, "z", cz)
		return exitError{code: 1}
	}
	printChunk(e.stdout, c)
	return nil
}

// printRegion writes one line per stored chunk of r.
func printRegion(w io.Writer, r region.Region) {
	rx, rz := r.Pos()
	n := 0
	for x := 0; x < region.Size; x++ {
		for z := 0; z < region.Size; z++ {
			c := r.Chunk(x, z)
			if c == nil {
				continue
			}
			n++
			sections, blocks := 0, 0
			for _, s := range c.Sections() {
				if s != nil && s.BlockCount() > 0 {
					sections++
					blocks += s.BlockCount()
				}
			}
			ax, az := c.Pos()
			fmt.Fprintf(w, "chunk %d,%d (world %d,%d): %d sections, %d blocks, %d block entities\n", x, z, ax, az, sections, blocks, len(c.BlockEntities()))
		}
	}
	fmt.Fprintf(w, "region %d,%d: %d chunks\n", rx, rz, n)
}

// printChunk writes the palette of every non-empty section of c.
func printChunk(w io.Writer, c *chunk.Chunk) {
	for _, s := range c.Sections() {
		if s == nil || s.BlockCount() == 0 {
			continue
		}
		s.Storage().Compact()
		fmt.Fprintf(w, "section %d: %d blocks, %d bits\n", s.Y(), s.BlockCount(), s.Storage().Storage().Bits())
		for id, state := range s.Storage().PaletteItems() {
			fmt.Fprintf(w, "  %d => %v\n", id, state)
		}
	}
	for _, be := range c.BlockEntities() {
		fmt.Fprintf(w, "block entity at %v: %v\n", be.Pos, be.Data["id"])
	}
}
