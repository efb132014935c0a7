package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ossyrian/carc/internal/engine"
)

func TestPrintSummary(t *testing.T) {
	s := engine.Summary{
		CreationDate:       time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		CompressionEnabled: true,
		FileCount:          1,
		TotalStoredSize:    4,
		Files:              []engine.FileSummary{{Name: "a.txt", RelativePath: "a.txt", UncompressedSize: 7, CompressedSize: 4}},
	}

	var buf bytes.Buffer
	printSummary(&buf, s)

	for _, want := range []string{
		"UTC creation date: 2026-10-18 09:30:00",
		"Run-length-encoding enabled: true",
		"Number of files archived: 1",
		"Size of all files archived: 4",
		"File: a.txt, uncompressed size: 7 bytes, compressed size: 4 bytes",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}
