package byteio

import "os"

// FileSource is a Source backed by an *os.File. Always seekable.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path for reading and wraps it as a seekable Source.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

func (s *FileSource) Tell() (int64, error) {
	return s.f.Seek(0, os.SEEK_CUR)
}

func (s *FileSource) Seek(offset int64) error {
	_, err := s.f.Seek(offset, os.SEEK_SET)
	return err
}

func (s *FileSource) IsSeekable() bool {
	return true
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
