package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FetchLog is the append-only per-day text log of fetch attempts. Each
// attempt gets a header with the escaped command line, the raw extractor
// output, and a footer with the outcome, so a failed acquisition can be
// reconstructed after the fact.
type FetchLog struct {
	dir string
}

// NewFetchLog creates a fetch log writing into dir. The directory is
// created on first open, not here.
func NewFetchLog(dir string) *FetchLog {
	return &FetchLog{dir: dir}
}

// Open opens (appending) today's log file.
func (l *FetchLog) Open() (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create fetch log directory: %w", err)
	}
	name := "fetch-" + time.Now().Format("20060102") + ".log"
	return os.OpenFile(filepath.Join(l.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// WriteHeader writes the attempt start marker with the command line.
func (l *FetchLog) WriteHeader(file *os.File, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Fetch: %s ===\n", timestamp, url))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// WriteFooter writes the attempt end marker.
func (l *FetchLog) WriteFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}
