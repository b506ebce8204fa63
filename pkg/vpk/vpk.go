// Package vpk provides reading functionality for Valve pak (VPK) archives.
package vpk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/kohachiro/MashFormMDL/pkg/encoding"
)

// Signature is the first word of every directory file.
const Signature = 0x55aa1234

const (
	headerSizeV1   = 12
	headerSizeV2   = 28
	entryTerm      = 0xffff
	embeddedIndex  = 0x7fff
	entryFixedSize = 18
)

var (
	ErrInvalidSignature  = errors.New("invalid VPK signature")
	ErrUnsupportedFormat = errors.New("unsupported VPK version")
	ErrCRCMismatch       = errors.New("VPK entry CRC mismatch")
	// ErrDataArchive reports a listed entry whose data archive cannot be opened.
	// It never matches fs.ErrNotExist, so callers can tell it from a missing entry.
	ErrDataArchive = errors.New("VPK data archive unavailable")
)

// Archive represents an opened VPK directory file and its data archives.
type Archive struct {
	path     string
	base     string // directory path without the "_dir.vpk" suffix
	file     *os.File
	header   Header
	dataBase int64 // start of embedded entry data
	fileList map[string]*Entry

	mu       sync.Mutex
	archives map[uint16]*os.File
}

// Header contains VPK directory header information.
type Header struct {
	Signature           uint32
	Version             uint32
	TreeSize            uint32
	FileDataSectionSize uint32 // version 2 only
	ArchiveMD5Size      uint32
	OtherMD5Size        uint32
	SignatureSize       uint32
}

// Entry represents a file entry in the directory tree.
type Entry struct {
	Name         string
	CRC          uint32
	Preload      []byte
	ArchiveIndex uint16
	Offset       uint32
	Length       uint32
}

// Size returns the full size of the entry's contents.
func (e *Entry) Size() int {
	return len(e.Preload) + int(e.Length)
}

// Open opens a VPK directory file for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	archive := &Archive{
		path:     path,
		base:     strings.TrimSuffix(strings.TrimSuffix(path, ".vpk"), "_dir"),
		file:     file,
		fileList: make(map[string]*Entry),
		archives: make(map[uint16]*os.File),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readTree(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory tree: %w", err)
	}

	return archive, nil
}

// Close closes the directory file and every opened data archive.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for idx, f := range a.archives {
		errs = append(errs, f.Close())
		delete(a.archives, idx)
	}
	if a.file != nil {
		errs = append(errs, a.file.Close())
		a.file = nil
	}
	return errors.Join(errs...)
}

// Header returns the directory header.
func (a *Archive) Header() Header {
	return a.header
}

func (a *Archive) readHeader() error {
	var head [headerSizeV1]byte
	if _, err := a.file.ReadAt(head[:], 0); err != nil {
		return err
	}
	a.header.Signature = binary.LittleEndian.Uint32(head[0:])
	a.header.Version = binary.LittleEndian.Uint32(head[4:])
	a.header.TreeSize = binary.LittleEndian.Uint32(head[8:])

	if a.header.Signature != Signature {
		return ErrInvalidSignature
	}

	switch a.header.Version {
	case 1:
		a.dataBase = headerSizeV1 + int64(a.header.TreeSize)
	case 2:
		var ext [headerSizeV2 - headerSizeV1]byte
		if _, err := a.file.ReadAt(ext[:], headerSizeV1); err != nil {
			return err
		}
		a.header.FileDataSectionSize = binary.LittleEndian.Uint32(ext[0:])
		a.header.ArchiveMD5Size = binary.LittleEndian.Uint32(ext[4:])
		a.header.OtherMD5Size = binary.LittleEndian.Uint32(ext[8:])
		a.header.SignatureSize = binary.LittleEndian.Uint32(ext[12:])
		a.dataBase = headerSizeV2 + int64(a.header.TreeSize)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, a.header.Version)
	}

	return nil
}

func (a *Archive) readTree() error {
	start := a.dataBase - int64(a.header.TreeSize)
	tree := make([]byte, a.header.TreeSize)
	if _, err := a.file.ReadAt(tree, start); err != nil {
		return err
	}

	r := &treeReader{data: tree}
	for {
		ext, err := r.cstring()
		if err != nil || ext == "" {
			return err
		}
		for {
			dir, err := r.cstring()
			if err != nil {
				return err
			}
			if dir == "" {
				break
			}
			for {
				name, err := r.cstring()
				if err != nil {
					return err
				}
				if name == "" {
					break
				}
				entry, err := r.entry()
				if err != nil {
					return fmt.Errorf("entry %s: %w", name, err)
				}
				entry.Name = joinEntryPath(dir, name, ext)
				a.fileList[entry.Name] = entry
			}
		}
	}
}

func joinEntryPath(dir, name, ext string) string {
	full := name
	if ext != " " {
		full += "." + ext
	}
	if dir != " " {
		full = dir + "/" + full
	}
	return normalizePath(full)
}

type treeReader struct {
	data []byte
	off  int
}

func (r *treeReader) cstring() (string, error) {
	end := bytes.IndexByte(r.data[r.off:], 0)
	if end < 0 {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.data[r.off : r.off+end])
	r.off += end + 1
	return s, nil
}

func (r *treeReader) entry() (*Entry, error) {
	if r.off+entryFixedSize > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.off:]
	e := &Entry{
		CRC:          binary.LittleEndian.Uint32(b[0:]),
		ArchiveIndex: binary.LittleEndian.Uint16(b[6:]),
		Offset:       binary.LittleEndian.Uint32(b[8:]),
		Length:       binary.LittleEndian.Uint32(b[12:]),
	}
	preload := int(binary.LittleEndian.Uint16(b[4:]))
	if term := binary.LittleEndian.Uint16(b[16:]); term != entryTerm {
		return nil, fmt.Errorf("bad terminator 0x%x", term)
	}
	r.off += entryFixedSize

	if r.off+preload > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	e.Preload = r.data[r.off : r.off+preload]
	r.off += preload
	return e, nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[normalizePath(path)]
	return ok
}

// Stat returns the directory entry of a file.
func (a *Archive) Stat(path string) (*Entry, bool) {
	e, ok := a.fileList[normalizePath(path)]
	return e, ok
}

// Read reads a file from the archive and verifies its CRC.
// A missing file yields an error matching fs.ErrNotExist.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s: %w", path, fs.ErrNotExist)
	}

	result := make([]byte, entry.Size())
	copy(result, entry.Preload)

	if entry.Length > 0 {
		src, base, err := a.source(entry.ArchiveIndex)
		if err != nil {
			return nil, err
		}
		if _, err := src.ReadAt(result[len(entry.Preload):], base+int64(entry.Offset)); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if crc := crc32.ChecksumIEEE(result); crc != entry.CRC {
		return nil, fmt.Errorf("%w: %s (got 0x%08x, want 0x%08x)", ErrCRCMismatch, path, crc, entry.CRC)
	}
	return result, nil
}

// source returns the file holding data of archive index idx and the base offset within it.
func (a *Archive) source(idx uint16) (io.ReaderAt, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil, 0, os.ErrClosed
	}
	if idx == embeddedIndex {
		return a.file, a.dataBase, nil
	}
	if f, ok := a.archives[idx]; ok {
		return f, 0, nil
	}
	f, err := os.Open(a.ArchivePath(idx))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: archive %d: %v", ErrDataArchive, idx, err)
	}
	a.archives[idx] = f
	return f, 0, nil
}

// ArchivePath returns the path of data archive idx.
func (a *Archive) ArchivePath(idx uint16) string {
	return fmt.Sprintf("%s_%03d.vpk", a.base, idx)
}

func normalizePath(path string) string {
	return encoding.NormalizePath(path)
}
