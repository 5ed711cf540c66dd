// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/js-arias/nsrp/output"
)

func TestMakePaths(t *testing.T) {
	p := output.PathsParam{
		Types:        []output.Type{output.Point},
		Format:       "txt",
		Folder:       "out",
		Realisations: 2,
	}
	paths, err := output.MakePaths(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want %d", len(paths), 2)
	}
	k := output.Key{Type: output.Point, Location: "1", Realisation: 2}
	got := paths[k]
	want := filepath.Join("out", "r2.txt")
	if got != want {
		t.Errorf("path for %v: got %q, want %q", k, got, want)
	}
}

func TestMakePathsSpatial(t *testing.T) {
	p := output.PathsParam{
		Spatial: true,
		Types:   []output.Type{output.Point, output.Catchment, output.Grid},
		Format:  "csv",
		Folder:  "out",
		Subfolders: map[output.Type]string{
			output.Catchment: "catchment",
		},
		PointNames:     []string{"gauge-a", "gauge-b"},
		CatchmentNames: []string{"brue"},
		Realisations:   1,
	}
	paths, err := output.MakePaths(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[output.Key]string{
		{Type: output.Point, Location: "gauge-a", Realisation: 1}:  filepath.Join("out", "gauge-a_r1.csv"),
		{Type: output.Point, Location: "gauge-b", Realisation: 1}:  filepath.Join("out", "gauge-b_r1.csv"),
		{Type: output.Catchment, Location: "brue", Realisation: 1}: filepath.Join("out", "catchment", "brue_r1.csv"),
		{Type: output.Grid, Location: "1", Realisation: 1}:         filepath.Join("out", "1_r1.nc"),
	}
	if len(paths) != len(tests) {
		t.Fatalf("got %d paths, want %d", len(paths), len(tests))
	}
	for k, want := range tests {
		if got := paths[k]; got != want {
			t.Errorf("path for %v: got %q, want %q", k, got, want)
		}
	}
}

func TestMakePathsBadFormat(t *testing.T) {
	p := output.PathsParam{
		Types:        []output.Type{output.Point},
		Format:       "parquet",
		Realisations: 1,
	}
	if _, err := output.MakePaths(p); err == nil {
		t.Errorf("expecting error on unknown format")
	}
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"point", "catchment", "grid"} {
		typ, err := output.ParseType(s)
		if err != nil {
			t.Errorf("keyword %q: unexpected error: %v", s, err)
		}
		if string(typ) != s {
			t.Errorf("keyword %q: got type %q", s, typ)
		}
	}
	if _, err := output.ParseType("raster"); err == nil {
		t.Errorf("expecting error on unknown type")
	}
}

func TestFormatValue(t *testing.T) {
	tests := map[float32]string{
		0:    "0",
		1:    "1",
		1.5:  "1.5",
		2.04: "2",
		10.0: "10",
		0.04: "0",
	}
	for v, want := range tests {
		if got := output.FormatValue(v); got != want {
			t.Errorf("value %g: got %q, want %q", v, got, want)
		}
	}
}

func TestTextWriter(t *testing.T) {
	dir := t.TempDir()
	k := output.Key{Type: output.Point, Location: "1", Realisation: 1}
	paths := output.Paths{k: filepath.Join(dir, "r1.txt")}

	w := output.NewTextWriter(paths)
	if err := w.Append(k, []float32{0, 1.5, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(paths[k]); !os.IsNotExist(err) {
		t.Errorf("final file %q should not exist before Finish", paths[k])
	}
	if err := w.Append(k, []float32{0.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Finish(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(paths[k])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := string(data)
	want := "0\n1.5\n2\n0.5\n"
	if got != want {
		t.Errorf("file content: got %q, want %q", got, want)
	}
	if _, err := os.Stat(paths[k] + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be removed after Finish")
	}
}

func TestTextWriterDiscard(t *testing.T) {
	dir := t.TempDir()
	k := output.Key{Type: output.Point, Location: "1", Realisation: 3}
	paths := output.Paths{k: filepath.Join(dir, "r3.txt")}

	w := output.NewTextWriter(paths)
	if err := w.Append(k, []float32{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Discard(3)

	if _, err := os.Stat(paths[k]); !os.IsNotExist(err) {
		t.Errorf("final file should not exist after Discard")
	}
	if _, err := os.Stat(paths[k] + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should not exist after Discard")
	}
}

func TestTextWriterUnknownKey(t *testing.T) {
	w := output.NewTextWriter(output.Paths{})
	k := output.Key{Type: output.Point, Location: "1", Realisation: 1}
	if err := w.Append(k, []float32{1}); err == nil {
		t.Errorf("expecting error on key without a path")
	}
}
