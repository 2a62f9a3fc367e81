// Package snapshot converts the live tree to and from a decoupled mirror
// structure, and the mirror to and from a self-describing byte encoding.
//
// A directory is encoded as its name, its files and its subdirectories. A
// string or byte blob is a uvarint length followed by the raw bytes, and a
// sequence is a uvarint count followed by its elements:
//
//	dir   = name:bytes files:seq(file) subdirs:seq(dir)
//	file  = name:bytes content:bytes
package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/desertwitch/kfs/internal/tree"
)

// MaxDepth is the deepest directory nesting [Decode] accepts.
const MaxDepth = 512

// SFile is the mirror of a [tree.File].
type SFile struct {
	Name    string
	Content []byte
}

// SDir is the mirror of a [tree.Directory], with files and subdirectories
// ordered by name.
type SDir struct {
	Name    string
	Files   []SFile
	Subdirs []SDir
}

// FromTree mirrors the subtree rooted at dir. File contents are copied.
func FromTree(dir *tree.Directory) SDir {
	s := SDir{Name: dir.Name}

	for _, f := range dir.Files() {
		s.Files = append(s.Files, SFile{
			Name:    f.Name,
			Content: append([]byte(nil), f.Content...),
		})
	}

	for _, sub := range dir.Subdirs() {
		s.Subdirs = append(s.Subdirs, FromTree(sub))
	}

	return s
}

// ToTree materializes the mirror as a new live subtree.
func (s SDir) ToTree() *tree.Directory {
	dir := tree.NewDirectory(s.Name)

	for _, sf := range s.Files {
		f := tree.NewFile(sf.Name)
		f.Append(sf.Content)
		dir.AddFile(f)
	}

	for _, sub := range s.Subdirs {
		dir.AddSubdir(sub.ToTree())
	}

	return dir
}

// Encode serializes the mirror.
func Encode(s SDir) []byte {
	return appendDir(nil, s)
}

// EncodeTree mirrors and serializes the subtree rooted at dir.
func EncodeTree(dir *tree.Directory) []byte {
	return Encode(FromTree(dir))
}

// Decode parses an encoded mirror. The input must be consumed exactly.
func Decode(data []byte) (SDir, error) {
	d := &decoder{data: data}

	s, err := d.dir(0)
	if err != nil {
		return SDir{}, fmt.Errorf("(snapshot-decode) %w", err)
	}

	if d.pos != len(d.data) {
		return SDir{}, fmt.Errorf("(snapshot-decode) %w: %d trailing bytes", ErrCorrupt, len(d.data)-d.pos)
	}

	return s, nil
}

// DecodeTree parses an encoded mirror and materializes it.
func DecodeTree(data []byte) (*tree.Directory, error) {
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return s.ToTree(), nil
}

func appendBytes(buf []byte, p []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(p)))

	return append(buf, p...)
}

func appendDir(buf []byte, s SDir) []byte {
	buf = appendBytes(buf, []byte(s.Name))

	buf = binary.AppendUvarint(buf, uint64(len(s.Files)))
	for _, f := range s.Files {
		buf = appendBytes(buf, []byte(f.Name))
		buf = appendBytes(buf, f.Content)
	}

	buf = binary.AppendUvarint(buf, uint64(len(s.Subdirs)))
	for _, sub := range s.Subdirs {
		buf = appendDir(buf, sub)
	}

	return buf
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad varint at offset %d", ErrCorrupt, d.pos)
	}
	d.pos += n

	return v, nil
}

// count reads a sequence length. Every element takes at least minSize bytes,
// which bounds the count by the remaining input.
func (d *decoder) count(minSize int) (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}

	if v > uint64((len(d.data)-d.pos)/minSize) {
		return 0, fmt.Errorf("%w: count %d overruns input at offset %d", ErrCorrupt, v, d.pos)
	}

	return int(v), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}

	if n > uint64(len(d.data)-d.pos) {
		return nil, fmt.Errorf("%w: length %d overruns input at offset %d", ErrCorrupt, n, d.pos)
	}

	p := make([]byte, n)
	copy(p, d.data[d.pos:])
	d.pos += int(n)

	return p, nil
}

//nolint:mnd
func (d *decoder) dir(depth int) (SDir, error) {
	if depth > MaxDepth {
		return SDir{}, fmt.Errorf("%w: nesting deeper than %d", ErrCorrupt, MaxDepth)
	}

	name, err := d.bytes()
	if err != nil {
		return SDir{}, err
	}
	s := SDir{Name: string(name)}

	// a file is at least two empty blobs, a directory three
	nfiles, err := d.count(2)
	if err != nil {
		return SDir{}, err
	}

	seen := make(map[string]struct{}, nfiles)
	for range nfiles {
		fname, err := d.bytes()
		if err != nil {
			return SDir{}, err
		}
		content, err := d.bytes()
		if err != nil {
			return SDir{}, err
		}

		if _, dup := seen[string(fname)]; dup {
			return SDir{}, fmt.Errorf("%w: duplicate file %q in %q", ErrCorrupt, fname, s.Name)
		}
		seen[string(fname)] = struct{}{}

		s.Files = append(s.Files, SFile{Name: string(fname), Content: content})
	}

	nsubdirs, err := d.count(3)
	if err != nil {
		return SDir{}, err
	}

	clear(seen)
	for range nsubdirs {
		sub, err := d.dir(depth + 1)
		if err != nil {
			return SDir{}, err
		}

		if _, dup := seen[sub.Name]; dup {
			return SDir{}, fmt.Errorf("%w: duplicate directory %q in %q", ErrCorrupt, sub.Name, s.Name)
		}
		seen[sub.Name] = struct{}{}

		s.Subdirs = append(s.Subdirs, sub)
	}

	return s, nil
}
