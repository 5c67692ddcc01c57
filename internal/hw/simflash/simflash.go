// Package simflash backs the persistence layer's reserved flash sector
// with an ordinary file, guarded by an advisory OS-level lock so the
// "mask interrupts, hold the sibling off" critical section in spec.md
// §4.B becomes a real mutual-exclusion primitive rather than an
// in-process mutex — usable even if the two cores were ever split
// across two real OS processes standing in for them.
package simflash

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// SectorSize matches the firmware's reserved flash-sector size
// (PERSIST_SECTOR_SIZE = 0x10000).
const SectorSize = 0x10000

// Sector is a single erase-sector-sized byte region backed by a file.
type Sector struct {
	f *os.File
}

// Open creates (if needed) and opens the sector file at path, erasing
// it to 0xFF bytes — matching flash's erased state — the first time it
// is created.
func Open(path string) (*Sector, error) {
	existed := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		existed = false
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	s := &Sector{f: f}
	if !existed {
		if err := s.erase(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Sector) erase() error {
	blank := make([]byte, SectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	if _, err := s.f.WriteAt(blank, 0); err != nil {
		return err
	}
	return s.f.Sync()
}

// Lock acquires the cross-process exclusive lock for the duration of a
// read-modify-write cycle, standing in for
// save_and_disable_interrupts()+multicore holdoff.
func (s *Sector) Lock() error {
	return unix.Flock(int(s.f.Fd()), unix.LOCK_EX)
}

func (s *Sector) Unlock() error {
	return unix.Flock(int(s.f.Fd()), unix.LOCK_UN)
}

// ReadAll returns the full sector contents.
func (s *Sector) ReadAll() ([]byte, error) {
	buf := make([]byte, SectorSize)
	_, err := io.ReadFull(io.NewSectionReader(s.f, 0, SectorSize), buf)
	return buf, err
}

// WriteAll erases the whole sector then programs it with data, modeling
// flash_range_erase followed by flash_range_program.
func (s *Sector) WriteAll(data []byte) error {
	if len(data) != SectorSize {
		return io.ErrShortWrite
	}
	if err := s.erase(); err != nil {
		return err
	}
	if _, err := s.f.WriteAt(data, 0); err != nil {
		return err
	}
	return s.f.Sync()
}

func (s *Sector) Close() error { return s.f.Close() }
