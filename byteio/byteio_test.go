package byteio

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
)

func TestFileSourceReadSeek(t *testing.T) {
	tmp, err := os.CreateTemp("", "byteio-file-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmp.Name())
	want := []byte("0123456789")
	if _, err := tmp.Write(want); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	src, err := OpenFile(tmp.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if !src.IsSeekable() {
		t.Fatal("file source should be seekable")
	}
	if src.Size() != int64(len(want)) {
		t.Errorf("Size() = %d, want %d", src.Size(), len(want))
	}

	buf := make([]byte, 4)
	n, err := src.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	if !bytes.Equal(buf, want[:4]) {
		t.Errorf("Read() = %q, want %q", buf, want[:4])
	}

	if err := src.Seek(8); err != nil {
		t.Fatal(err)
	}
	pos, err := src.Tell()
	if err != nil || pos != 8 {
		t.Fatalf("Tell() = %d, %v", pos, err)
	}
}

func TestStreamSourceNotSeekable(t *testing.T) {
	src := NewStreamSource(bytes.NewReader([]byte("hello")))
	if src.IsSeekable() {
		t.Fatal("stream source should not be seekable")
	}
	if err := src.Seek(0); err != ErrNotSeekable {
		t.Errorf("Seek() = %v, want ErrNotSeekable", err)
	}
	buf := make([]byte, 5)
	n, err := src.Read(buf)
	if err != nil || n != 5 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	pos, _ := src.Tell()
	if pos != 5 {
		t.Errorf("Tell() = %d, want 5", pos)
	}
}

func TestHTTPSourceSeekableWithRanges(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		rangeHdr := r.Header.Get("Range")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			return
		}
		if rangeHdr != "" {
			var start int
			parseRangeStart(rangeHdr, &start)
			w.WriteHeader(http.StatusPartialContent)
			w.Write(content[start:])
			return
		}
		w.Write(content)
	}))
	defer srv.Close()

	src, err := OpenHTTP(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if !src.IsSeekable() {
		t.Fatal("expected server with Accept-Ranges to be treated as seekable")
	}
	if src.Size() != int64(len(content)) {
		t.Errorf("Size() = %d, want %d", src.Size(), len(content))
	}

	if err := src.Seek(16); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 5)
	n, err := src.Read(buf)
	if err != nil || n != 5 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	if string(buf) != "fox j" {
		t.Errorf("Read() after seek = %q, want %q", buf, "fox j")
	}
}

func parseRangeStart(hdr string, out *int) {
	// hdr looks like "bytes=16-"
	var n int
	for i := len("bytes="); i < len(hdr) && hdr[i] != '-'; i++ {
		n = n*10 + int(hdr[i]-'0')
	}
	*out = n
}
