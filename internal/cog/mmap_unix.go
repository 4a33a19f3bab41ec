//go:build unix

package cog

import (
	"fmt"
	"os"
	"syscall"
)

// mmapFile memory-maps a file read-only. The mapping outlives the fd it was
// created from (the kernel keeps the backing file open), which is what lets
// Open mmap behind a deferred f.Close(). Each Raster.ReadTile call opens its
// own *Reader and therefore its own mapping (spec.md §5's "fresh handle per
// call, no shared mutable dataset state"), so no mapping is shared across
// tile reads; the per-band goroutines of one ReadTile share that call's
// mapping, which is read-only.
func mmapFile(f *os.File, size int) ([]byte, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("cog: mmap: %w", err)
	}
	return data, nil
}

// munmapFile releases a memory mapping created by mmapFile.
func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
