package retained

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	regionDirMode  = 0o700
	regionFileMode = 0o600
)

var ErrRegionSize = errors.New("retained region is smaller than the record")

// Region is a fixed block of memory that outlives the process but not a
// power loss.
type Region interface {
	Bytes() []byte
	Flush() error
	Close() error
}

type MemoryRegion struct {
	buf []byte
}

var _ Region = (*MemoryRegion)(nil)

func NewMemoryRegion() *MemoryRegion {
	return &MemoryRegion{buf: make([]byte, RecordSize)}
}

func (r *MemoryRegion) Bytes() []byte { return r.buf }
func (r *MemoryRegion) Flush() error  { return nil }
func (r *MemoryRegion) Close() error  { return nil }

// MappedRegion is a shared mapping of a small file. Placed on tmpfs
// (/dev/shm, $XDG_RUNTIME_DIR) it behaves like RTC memory: it survives a
// restart of the process and is gone after a reboot.
type MappedRegion struct {
	path string
	data []byte
}

var _ Region = (*MappedRegion)(nil)

func OpenMappedRegion(path string) (*MappedRegion, error) {
	if path == "" {
		return nil, errors.New("retained region path is empty")
	}
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), regionDirMode); err != nil {
		return nil, fmt.Errorf("create retained region directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, regionFileMode)
	if err != nil {
		return nil, fmt.Errorf("open retained region: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat retained region: %w", err)
	}
	if info.Size() < RecordSize {
		if err := file.Truncate(RecordSize); err != nil {
			return nil, fmt.Errorf("size retained region: %w", err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, RecordSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map retained region: %w", err)
	}

	return &MappedRegion{path: path, data: data}, nil
}

func (r *MappedRegion) Path() string  { return r.path }
func (r *MappedRegion) Bytes() []byte { return r.data }

func (r *MappedRegion) Flush() error {
	if r.data == nil {
		return nil
	}
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("sync retained region: %w", err)
	}
	return nil
}

func (r *MappedRegion) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmap retained region: %w", err)
	}
	return nil
}
