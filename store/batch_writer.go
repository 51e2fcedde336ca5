package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// DefaultRowsPerFile is the rotation threshold used when none is given.
const DefaultRowsPerFile = 4096

// BatchWriter streams DecisionRows into a parquet file under outDir/tmp and
// publishes it into outDir on rotation or Close. Safe for concurrent use.
type BatchWriter struct {
	mu sync.Mutex

	outDir      string
	tmpDir      string
	rowsPerFile int

	tmpPath string
	outPath string
	file    *os.File
	writer  *parquet.GenericWriter[DecisionRow]
	rows    int

	published []string
	closed    bool
}

func NewBatchWriter(outDir string, rowsPerFile int) (*BatchWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if rowsPerFile <= 0 {
		rowsPerFile = DefaultRowsPerFile
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	return &BatchWriter{
		outDir:      absOut,
		tmpDir:      tmpDir,
		rowsPerFile: rowsPerFile,
	}, nil
}

// open starts a fresh tmp file. Caller holds mu.
func (b *BatchWriter) open() error {
	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	b.tmpPath = filepath.Join(b.tmpDir, name)
	b.outPath = filepath.Join(b.outDir, name)

	f, err := os.OpenFile(b.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp parquet: %w", err)
	}
	w := parquet.NewGenericWriter[DecisionRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("state"),
	)
	w.SetKeyValueMetadata("schema", decisionSchema)

	b.file = f
	b.writer = w
	b.rows = 0
	return nil
}

// Write appends rows, rotating to a new file once the current one holds
// rowsPerFile rows.
func (b *BatchWriter) Write(rows ...DecisionRow) error {
	if len(rows) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("batch writer is closed")
	}
	if b.writer == nil {
		if err := b.open(); err != nil {
			return err
		}
	}
	if _, err := b.writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	b.rows += len(rows)

	if b.rows >= b.rowsPerFile {
		return b.publish()
	}
	return nil
}

// Flush publishes the current file, if it holds any rows.
func (b *BatchWriter) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publish()
}

// publish closes the open file and renames it into outDir. An empty file is
// discarded. Caller holds mu.
func (b *BatchWriter) publish() error {
	if b.writer == nil {
		return nil
	}

	closeErr := b.writer.Close()
	_ = b.file.Sync()
	fileErr := b.file.Close()
	b.writer = nil
	b.file = nil

	if closeErr != nil {
		return fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return fmt.Errorf("close parquet file: %w", fileErr)
	}

	if b.rows == 0 {
		_ = os.Remove(b.tmpPath)
		return nil
	}
	if err := os.Rename(b.tmpPath, b.outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	b.published = append(b.published, b.outPath)
	b.rows = 0
	return nil
}

// Published lists the files moved into outDir so far.
func (b *BatchWriter) Published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

// Pending is the number of rows in the unpublished file.
func (b *BatchWriter) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows
}

func (b *BatchWriter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.publish()
}
