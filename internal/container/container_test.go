package container_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ossyrian/carc/internal/archive"
	"github.com/ossyrian/carc/internal/container"
)

// buildHeader returns the 8-byte header for offset followed by body.
func buildHeader(offset uint64, body []byte) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, offset)
	buf.Write(body)
	return buf.Bytes()
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    container.Header
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid header",
			input: buildHeader(1234, nil),
			want:  container.Header{MetadataOffset: 1234},
		},
		{
			name:  "little endian byte order",
			input: []byte{0x08, 0x01, 0, 0, 0, 0, 0, 0, 0xAA},
			want:  container.Header{MetadataOffset: 0x0108},
		},
		{
			name:    "empty input",
			input:   []byte{},
			wantErr: true,
			errMsg:  "failed to read metadata offset",
		},
		{
			name:    "short header",
			input:   []byte{1, 2, 3},
			wantErr: true,
			errMsg:  "failed to read metadata offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := container.ReadHeader(bytes.NewReader(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatal("ReadHeader() succeeded unexpectedly, wanted error")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ReadHeader() error = %v, should contain %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadHeader() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		offset  uint64
		size    int64
		wantErr bool
	}{
		{name: "metadata right after header", offset: 8, size: 20},
		{name: "offset inside header", offset: 4, size: 20, wantErr: true},
		{name: "offset at end of file", offset: 20, size: 20, wantErr: true},
		{name: "offset past end of file", offset: 1 << 40, size: 20, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := container.Header{MetadataOffset: tt.offset}.Validate(tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "archive.carc"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func fileSize(t *testing.T, f *os.File) int64 {
	t.Helper()
	st, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	return st.Size()
}

func TestMetadataRoundTrip(t *testing.T) {
	f := tempFile(t)

	payload := []byte("0123456789")
	if _, err := f.Seek(container.HeaderSize, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(payload); err != nil {
		t.Fatal(err)
	}

	a := archive.New(time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC), false)
	a.Folders = []string{"sub"}
	a.Files = []archive.FileEntry{
		{Name: "a.txt", RelativePath: "a.txt", UncompressedSize: 10, SourcePath: "/somewhere/a.txt"},
	}
	a.Recount()

	offset, end, err := container.WriteMetadata(f, a)
	if err != nil {
		t.Fatalf("WriteMetadata() failed: %v", err)
	}
	if offset != container.HeaderSize+int64(len(payload)) {
		t.Errorf("offset = %d, want %d", offset, container.HeaderSize+len(payload))
	}
	if end != fileSize(t, f) {
		t.Errorf("end = %d, want file size %d", end, fileSize(t, f))
	}

	got, h, err := container.ReadMetadata(f, fileSize(t, f))
	if err != nil {
		t.Fatalf("ReadMetadata() failed: %v", err)
	}
	if h.MetadataOffset != uint64(offset) {
		t.Errorf("header offset = %d, want %d", h.MetadataOffset, offset)
	}
	if !got.CreationDate.Equal(a.CreationDate) {
		t.Errorf("CreationDate = %v, want %v", got.CreationDate, a.CreationDate)
	}
	if got.FileCount != 1 || got.TotalStoredSize != 10 || len(got.Folders) != 1 || got.Folders[0] != "sub" {
		t.Errorf("ReadMetadata() = %+v", got)
	}
	if got.Files[0].SourcePath != "" {
		t.Errorf("SourcePath was persisted: %q", got.Files[0].SourcePath)
	}
}

func TestReadMetadataCorrupt(t *testing.T) {
	valid := func(t *testing.T) []byte {
		f := tempFile(t)
		if _, err := f.Seek(container.HeaderSize, 0); err != nil {
			t.Fatal(err)
		}
		f.Write([]byte("xy"))
		a := archive.New(time.Unix(0, 0), false)
		a.Files = []archive.FileEntry{{Name: "f", RelativePath: "f", UncompressedSize: 2}}
		a.Recount()
		if _, _, err := container.WriteMetadata(f, a); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	tests := []struct {
		name   string
		mangle func(data []byte) []byte
		errMsg string
	}{
		{
			name:   "too short for header",
			mangle: func(data []byte) []byte { return data[:5] },
			errMsg: "too short",
		},
		{
			name: "offset past end",
			mangle: func(data []byte) []byte {
				binary.LittleEndian.PutUint64(data, uint64(len(data)+10))
				return data
			},
			errMsg: "invalid metadata offset",
		},
		{
			name:   "truncated metadata",
			mangle: func(data []byte) []byte { return data[:len(data)-3] },
			errMsg: "failed to decode metadata",
		},
		{
			name: "offset points into payload",
			mangle: func(data []byte) []byte {
				binary.LittleEndian.PutUint64(data, 8)
				return data
			},
			errMsg: "failed to decode metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mangle(valid(t))
			_, _, err := container.ReadMetadata(bytes.NewReader(data), int64(len(data)))
			if err == nil {
				t.Fatal("ReadMetadata() succeeded unexpectedly")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ReadMetadata() error = %v, should contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	big := append(bytes.Repeat([]byte{'a'}, container.ChunkSize+300), []byte("tail-bytes")...)

	tests := []struct {
		name       string
		content    []byte
		compressed bool
		wantStored int64
	}{
		{name: "raw", content: []byte("hello"), compressed: false, wantStored: 5},
		{name: "encoded", content: []byte("AAAABBB"), compressed: true, wantStored: 4},
		{name: "empty raw", content: nil, compressed: false, wantStored: 0},
		{name: "empty encoded", content: nil, compressed: true, wantStored: 0},
		{name: "encoded across chunks", content: big, compressed: true, wantStored: -1},
		{name: "raw across chunks", content: big, compressed: false, wantStored: int64(len(big))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var archived bytes.Buffer
			p, err := container.WritePayload(&archived, bytes.NewReader(tt.content), tt.compressed)
			if err != nil {
				t.Fatalf("WritePayload() failed: %v", err)
			}
			if p.Uncompressed != int64(len(tt.content)) {
				t.Errorf("Uncompressed = %d, want %d", p.Uncompressed, len(tt.content))
			}
			if p.Stored != int64(archived.Len()) {
				t.Errorf("Stored = %d, but %d bytes were written", p.Stored, archived.Len())
			}
			if tt.wantStored >= 0 && p.Stored != tt.wantStored {
				t.Errorf("Stored = %d, want %d", p.Stored, tt.wantStored)
			}
			if len(p.Digest) != 32 {
				t.Errorf("len(Digest) = %d, want 32", len(p.Digest))
			}

			// trailing bytes belong to the next payload and must not be consumed
			archived.WriteString("NEXT")
			r := bytes.NewReader(archived.Bytes())

			var out bytes.Buffer
			n, err := container.ReadPayload(r, &out, p.Stored, tt.compressed)
			if err != nil {
				t.Fatalf("ReadPayload() failed: %v", err)
			}
			if n != int64(len(tt.content)) || !bytes.Equal(out.Bytes(), tt.content) {
				t.Errorf("ReadPayload() wrote %d bytes %q, want %q", n, out.Bytes(), tt.content)
			}
			if r.Len() != 4 {
				t.Errorf("ReadPayload() left %d bytes, want 4", r.Len())
			}
		})
	}
}

func TestSkipPayload(t *testing.T) {
	r := bytes.NewReader([]byte("skipmekeep"))
	if err := container.SkipPayload(r, 6); err != nil {
		t.Fatalf("SkipPayload() failed: %v", err)
	}
	rest := make([]byte, 4)
	r.Read(rest)
	if string(rest) != "keep" {
		t.Errorf("after skip read %q, want %q", rest, "keep")
	}

	if err := container.SkipPayload(bytes.NewReader([]byte("ab")), 5); err == nil {
		t.Error("SkipPayload() past end succeeded unexpectedly")
	}
}

func TestReadPayloadTruncated(t *testing.T) {
	var out bytes.Buffer
	_, err := container.ReadPayload(bytes.NewReader([]byte("abc")), &out, 10, false)
	if err == nil || !strings.Contains(err.Error(), "failed to read payload") {
		t.Errorf("ReadPayload() error = %v, want read failure", err)
	}
}
