//go:build !windows

package exr

import (
	"os"
	"syscall"
)

// mappedFile is a read-only memory mapping of a whole file.
type mappedFile struct {
	data []byte
	file *os.File
}

// mapFile maps the named file into memory.
func mapFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	m := &mappedFile{file: f}
	if fi.Size() == 0 {
		return m, nil
	}
	m.data, err = syscall.Mmap(int(f.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *mappedFile) Bytes() []byte {
	return m.data
}

// Close unmaps the file and closes it.
func (m *mappedFile) Close() error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	return m.file.Close()
}
