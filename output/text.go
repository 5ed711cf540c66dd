// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// A Writer stages discretised rainfall series
// and writes them to their output files.
// Series are appended block by block
// and become visible at their final paths
// only when a realisation finishes,
// so an aborted realisation never leaves
// a partial file that looks complete.
type Writer interface {
	// Append stages values at the end of a series.
	Append(k Key, vals []float32) error

	// Finish finalizes every series of a realisation.
	Finish(realisation int) error

	// Discard drops the staged output of a realisation.
	Discard(realisation int)
}

// A TextWriter writes series as newline-separated
// trimmed-decimal text files.
// Values are staged in a temporary file
// renamed into place on Finish.
type TextWriter struct {
	mu    sync.Mutex
	paths Paths
	open  map[Key]*bufio.Writer
	files map[Key]*os.File
}

// NewTextWriter returns a text writer
// over the given path table.
func NewTextWriter(paths Paths) *TextWriter {
	return &TextWriter{
		paths: paths,
		open:  make(map[Key]*bufio.Writer),
		files: make(map[Key]*os.File),
	}
}

func tmpPath(path string) string {
	return path + ".tmp"
}

// Append implements the Writer interface.
func (w *TextWriter) Append(k Key, vals []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	bw, ok := w.open[k]
	if !ok {
		path, ok := w.paths[k]
		if !ok {
			return fmt.Errorf("output: no path for %v", k)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("output: %v", err)
		}
		f, err := os.Create(tmpPath(path))
		if err != nil {
			return fmt.Errorf("output: %v", err)
		}
		w.files[k] = f
		bw = bufio.NewWriter(f)
		w.open[k] = bw
	}

	for _, v := range vals {
		if _, err := bw.WriteString(FormatValue(v)); err != nil {
			return fmt.Errorf("output: on file %q: %v", w.paths[k], err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("output: on file %q: %v", w.paths[k], err)
		}
	}
	return nil
}

// Finish implements the Writer interface.
func (w *TextWriter) Finish(realisation int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, bw := range w.open {
		if k.Realisation != realisation {
			continue
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("output: on file %q: %v", w.paths[k], err)
		}
		f := w.files[k]
		if err := f.Close(); err != nil {
			return fmt.Errorf("output: on file %q: %v", w.paths[k], err)
		}
		if err := os.Rename(tmpPath(w.paths[k]), w.paths[k]); err != nil {
			return fmt.Errorf("output: %v", err)
		}
		delete(w.open, k)
		delete(w.files, k)
	}
	return nil
}

// Discard implements the Writer interface.
func (w *TextWriter) Discard(realisation int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, f := range w.files {
		if k.Realisation != realisation {
			continue
		}
		f.Close()
		os.Remove(tmpPath(w.paths[k]))
		delete(w.open, k)
		delete(w.files, k)
	}
}

// FormatValue formats a staged value
// with one decimal place
// and trailing zeros trimmed,
// so whole numbers print without a decimal point.
func FormatValue(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', 1, 32)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
