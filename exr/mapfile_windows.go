//go:build windows

package exr

import (
	"os"
	"syscall"
	"unsafe"
)

// mappedFile is a read-only memory mapping of a whole file.
type mappedFile struct {
	data   []byte
	file   *os.File
	handle syscall.Handle
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
	size := fi.Size()
	if size == 0 {
		return m, nil
	}

	handle, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READONLY,
		uint32(size>>32), uint32(size), nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	ptr, err := syscall.MapViewOfFile(handle, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		syscall.CloseHandle(handle)
		f.Close()
		return nil, err
	}
	m.handle = handle
	m.data = unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(size))
	return m, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *mappedFile) Bytes() []byte {
	return m.data
}

// Close unmaps the file and closes it.
func (m *mappedFile) Close() error {
	if m.data != nil {
		syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(&m.data[0])))
		m.data = nil
	}
	if m.handle != 0 {
		syscall.CloseHandle(m.handle)
		m.handle = 0
	}
	return m.file.Close()
}
