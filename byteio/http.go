package byteio

import (
	"fmt"
	"io"
	"net/http"
)

// HTTPSource reads an http(s):// URI as a byte-addressable source. It
// probes the server once, with a HEAD request, to learn the content
// length and whether range requests are honored; if the server doesn't
// answer "Accept-Ranges: bytes", the source reports IsSeekable() ==
// false and Seek synthesizes nothing — it simply refuses, same as any
// other non-seekable source. When ranges are supported, Seek is
// implemented by discarding the current GET and issuing a new ranged
// one lazily on the next Read.
type HTTPSource struct {
	client *http.Client
	url    string

	seekable bool
	size     int64

	body   io.ReadCloser
	offset int64
}

// OpenHTTP probes url and returns an HTTPSource. client may be nil to use
// http.DefaultClient.
func OpenHTTP(url string, client *http.Client) (*HTTPSource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	s := &HTTPSource{client: client, url: url, size: -1}
	if resp.ContentLength >= 0 {
		s.size = resp.ContentLength
	}
	s.seekable = resp.Header.Get("Accept-Ranges") == "bytes" && s.size >= 0
	return s, nil
}

func (s *HTTPSource) ensureBody() error {
	if s.body != nil {
		return nil
	}
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	if s.seekable && s.offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", s.offset))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	if s.seekable && s.offset > 0 && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return fmt.Errorf("byteio: server did not honor range request (status %d)", resp.StatusCode)
	}
	s.body = resp.Body
	return nil
}

func (s *HTTPSource) Read(p []byte) (int, error) {
	if err := s.ensureBody(); err != nil {
		return 0, err
	}
	n, err := s.body.Read(p)
	s.offset += int64(n)
	return n, err
}

func (s *HTTPSource) Tell() (int64, error) {
	if !s.seekable {
		return 0, ErrNotSeekable
	}
	return s.offset, nil
}

func (s *HTTPSource) Seek(offset int64) error {
	if !s.seekable {
		return ErrNotSeekable
	}
	if offset == s.offset {
		return nil
	}
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
	s.offset = offset
	return nil
}

func (s *HTTPSource) IsSeekable() bool {
	return s.seekable
}

func (s *HTTPSource) Size() int64 {
	return s.size
}

func (s *HTTPSource) Close() error {
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
