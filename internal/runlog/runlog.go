// Package runlog records the source paths a run could not place.
//
// Both logs are truncated when a run opens them and receive one path per line
// in discovery order.
package runlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	NoMetadataFileName = "no_metadata_log.txt"
	DuplicateFileName  = "duplicate_files_log.txt"
)

// FileNames lists the log files a run writes into the destination root.
func FileNames() []string {
	return []string{NoMetadataFileName, DuplicateFileName}
}

type sink struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	entries []string
}

func openSink(path string) (*sink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	return &sink{path: path, file: file, writer: bufio.NewWriter(file)}, nil
}

func (s *sink) append(entry string) error {
	s.entries = append(s.entries, entry)
	if _, err := s.writer.WriteString(entry + "\n"); err != nil {
		return fmt.Errorf("write run log %s: %w", s.path, err)
	}
	return nil
}

func (s *sink) close() error {
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush run log %s: %w", s.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close run log %s: %w", s.path, closeErr)
	}
	return nil
}

// Log owns the no-metadata and duplicate sequences for one run.
type Log struct {
	mu         sync.Mutex
	noMetadata *sink
	duplicates *sink
	closed     bool
}

// Open truncates (or creates) both log files under destRoot.
func Open(destRoot string) (*Log, error) {
	noMetadata, err := openSink(filepath.Join(destRoot, NoMetadataFileName))
	if err != nil {
		return nil, err
	}
	duplicates, err := openSink(filepath.Join(destRoot, DuplicateFileName))
	if err != nil {
		_ = noMetadata.close()
		return nil, err
	}
	return &Log{noMetadata: noMetadata, duplicates: duplicates}, nil
}

// RecordNoMetadata appends a source path to no_metadata_log.txt.
func (l *Log) RecordNoMetadata(source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.noMetadata.append(source)
}

// RecordDuplicate appends a source path to duplicate_files_log.txt.
func (l *Log) RecordDuplicate(source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.duplicates.append(source)
}

// NoMetadata returns the recorded no-metadata paths in order.
func (l *Log) NoMetadata() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.noMetadata.entries...)
}

// Duplicates returns the recorded duplicate paths in order.
func (l *Log) Duplicates() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.duplicates.entries...)
}

// Close flushes and closes both files. It is safe to call more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.noMetadata.close(), l.duplicates.close())
}
