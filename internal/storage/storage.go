// Package storage implements KiteDB's paged file storage and the LRU
// buffer pool layered over it. Every file is a sequence of fixed-size
// pages with a reserved page-0 header describing the page size and
// page count.
package storage

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/kitelog"
)

const (
	// HeaderPageID is the fixed page-0 file header.
	HeaderPageID = 0

	magic          = "GDB\x00"
	headerPageSize = 4 // bytes occupied by the magic
)

// Storage is a single file of fixed-size pages. Page 0 is the header;
// user records live on pages >= 1.
type Storage struct {
	file      *os.File
	pageSize  uint32
	pageCount uint32
	log       *kitelog.Logger
}

// Open opens (or creates) a paged file at path with the given page
// size. If the file is empty, a fresh header is written with page
// count 1. Otherwise the file size must be a multiple of pageSize.
func Open(path string, pageSize uint32, log *kitelog.Logger) (*Storage, error) {
	if log == nil {
		log = kitelog.Default
	}
	if pageSize == 0 {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "storage.Open", "page size must be positive")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "storage.Open", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kiteerr.Wrap(kiteerr.IoError, "storage.Open", err)
	}

	s := &Storage{file: f, pageSize: pageSize, log: log}

	if stat.Size() == 0 {
		s.pageCount = 1
		if err := s.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
		log.Infof("initialized new paged file %q (pageSize=%d)", path, pageSize)
		return s, nil
	}

	if stat.Size()%int64(pageSize) != 0 {
		f.Close()
		return nil, kiteerr.New(kiteerr.IoError, "storage.Open",
			fmt.Sprintf("file size %d is not a multiple of page size %d", stat.Size(), pageSize))
	}

	header := make([]byte, pageSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		f.Close()
		return nil, kiteerr.Wrap(kiteerr.IoError, "storage.Open", err)
	}
	if string(header[0:4]) != magic {
		f.Close()
		return nil, kiteerr.New(kiteerr.Malformed, "storage.Open", "bad file magic")
	}
	onDiskPageSize := binary.LittleEndian.Uint32(header[4:8])
	if onDiskPageSize != pageSize {
		f.Close()
		return nil, kiteerr.New(kiteerr.InvalidArgument, "storage.Open",
			fmt.Sprintf("page size mismatch: file has %d, requested %d", onDiskPageSize, pageSize))
	}

	s.pageCount = uint32(stat.Size() / int64(pageSize))
	log.Infof("opened paged file %q (pageCount=%d)", path, s.pageCount)
	return s, nil
}

func (s *Storage) writeHeader() error {
	buf := make([]byte, s.pageSize)
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], s.pageSize)
	binary.LittleEndian.PutUint32(buf[8:12], s.pageCount)
	if _, err := s.file.WriteAt(buf, 0); err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "storage.writeHeader", err)
	}
	return nil
}

// PageSize returns the configured page size.
func (s *Storage) PageSize() uint32 { return s.pageSize }

// PageCount returns the current number of pages in the file,
// including the header page.
func (s *Storage) PageCount() uint32 { return s.pageCount }

// ReadPage reads the raw bytes of page id.
func (s *Storage) ReadPage(id uint32) ([]byte, error) {
	if id >= s.pageCount {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "storage.ReadPage",
			fmt.Sprintf("page %d out of bounds (count=%d)", id, s.pageCount))
	}
	buf := make([]byte, s.pageSize)
	if _, err := s.file.ReadAt(buf, int64(id)*int64(s.pageSize)); err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "storage.ReadPage", err)
	}
	return buf, nil
}

// WritePage writes data (which must be exactly PageSize bytes) to
// page id.
func (s *Storage) WritePage(id uint32, data []byte) error {
	if uint32(len(data)) != s.pageSize {
		return kiteerr.New(kiteerr.InvalidArgument, "storage.WritePage",
			fmt.Sprintf("invalid page size %d, expected %d", len(data), s.pageSize))
	}
	if id >= s.pageCount {
		return kiteerr.New(kiteerr.InvalidArgument, "storage.WritePage",
			fmt.Sprintf("page %d out of bounds (count=%d)", id, s.pageCount))
	}
	if _, err := s.file.WriteAt(data, int64(id)*int64(s.pageSize)); err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "storage.WritePage", err)
	}
	return nil
}

// AllocatePage appends a new zeroed page and returns its id.
func (s *Storage) AllocatePage() (uint32, error) {
	id := s.pageCount
	empty := make([]byte, s.pageSize)
	if _, err := s.file.WriteAt(empty, int64(id)*int64(s.pageSize)); err != nil {
		return 0, kiteerr.Wrap(kiteerr.IoError, "storage.AllocatePage", err)
	}
	s.pageCount++
	if err := s.writeHeader(); err != nil {
		s.pageCount--
		return 0, err
	}
	s.log.Debugf("allocated page %d (count=%d)", id, s.pageCount)
	return id, nil
}

// Close flushes the file to disk and closes the handle. It must be
// called exactly once per successful Open.
func (s *Storage) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "storage.Close", err)
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "storage.Close", err)
	}
	return nil
}
