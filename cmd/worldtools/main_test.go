package main

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mckt-minecraft/worldtools/world"
	"github.com/mckt-minecraft/worldtools/world/chunk"
	"github.com/mckt-minecraft/worldtools/world/region"
)

func exitCode(err error) int {
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return -1
	}
	return 0
}

func writeRegion(t *testing.T, path string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	c := chunk.Config{Log: log}.New(32, -32, 0, 0)
	c.SetBlock(1, 70, 1, world.NewBlockState(world.MustIdentifier("diamond_block")))
	r := region.NewStandardRegion(1, -1, path, region.Config{Log: log})
	r.SetChunk(0, 0, c)
	if err := r.Save(); err != nil {
		t.Fatalf("save region: %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"help"}, &stdout, &stderr); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"convert", "inspect", "help"} {
		if !strings.Contains(stderr.String(), name) {
			t.Fatalf("help output misses command %q:\n%s", name, stderr.String())
		}
	}
	stderr.Reset()
	if err := run([]string{"help", "convert"}, &stdout, &stderr); err != nil {
		t.Fatalf("help convert: %v", err)
	}
	if !strings.Contains(stderr.String(), "<in-format>") {
		t.Fatalf("help convert output misses usage:\n%s", stderr.String())
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	for name, args := range map[string][]string{
		"unknown command":   {"explode"},
		"missing arguments": {"convert", "anvil"},
		"unknown format":    {"convert", "mcregion", "in", "anvil", "out"},
		"missing input":     {"convert", "anvil", filepath.Join(dir, "r.0.0.mca"), "standard", filepath.Join(dir, "r.0.0.zip")},
		"bad log level":     {"--log-level", "loud", "help"},
	} {
		var stdout, stderr bytes.Buffer
		if code := exitCode(run(args, &stdout, &stderr)); code == 0 {
			t.Fatalf("%s: expected a failure", name)
		}
	}
}

func TestRunConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "r.1.-1.zip"), filepath.Join(dir, "r.1.-1.mca")
	writeRegion(t, in)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--log-level", "warn", "convert", "standard", in, "anvil", out}, &stdout, &stderr); err != nil {
		t.Fatalf("convert: %v\n%s", err, stderr.String())
	}
	if err := run([]string{"inspect", "anvil", out}, &stdout, &stderr); err != nil {
		t.Fatalf("inspect: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "chunk 0,0 (world 32,-32): 1 sections, 1 blocks") {
		t.Fatalf("unexpected inspect output:\n%s", stdout.String())
	}
	stdout.Reset()
	if err := run([]string{"inspect", "anvil", out, "0", "0"}, &stdout, &stderr); err != nil {
		t.Fatalf("inspect chunk: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "minecraft:diamond_block") {
		t.Fatalf("unexpected inspect output:\n%s", stdout.String())
	}
}

func TestRunConvertDirectory(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "converted")
	writeRegion(t, filepath.Join(in, "r.1.-1.zip"))

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--workers", "2", "convert", "standard", in, "legacy", out}, &stdout, &stderr); err != nil {
		t.Fatalf("convert directory: %v\n%s", err, stderr.String())
	}
	r := region.NewLegacyRegion(1, -1, filepath.Join(out, "r.1.-1.nbtgz"), region.Config{})
	if err := r.Load(); err != nil {
		t.Fatalf("load converted region: %v", err)
	}
	if r.Chunk(0, 0) == nil {
		t.Fatalf("converted region misses its chunk")
	}
}
