// Package tree implements the in-memory hierarchical store of named
// directories holding named files and named subdirectories.
package tree

import (
	"bytes"
	"maps"
	"slices"
)

// File is a named blob of arbitrary bytes.
type File struct {
	Name    string
	Content []byte
}

// NewFile returns a pointer to a new empty [File].
func NewFile(name string) *File {
	return &File{Name: name}
}

// Append adds data to the end of the content.
func (f *File) Append(data []byte) {
	f.Content = append(f.Content, data...)
}

// Overwrite replaces the content with a copy of data.
func (f *File) Overwrite(data []byte) {
	f.Content = append(f.Content[:0], data...)
}

// Clear empties the content.
func (f *File) Clear() {
	f.Content = f.Content[:0]
}

// Len returns the content size in bytes.
func (f *File) Len() int {
	return len(f.Content)
}

// Directory is a named node owning its files and subdirectories. Files and
// subdirectories live in separate namespaces.
type Directory struct {
	Name    string
	files   map[string]*File
	subdirs map[string]*Directory
}

// NewDirectory returns a pointer to a new empty [Directory].
func NewDirectory(name string) *Directory {
	return &Directory{
		Name:    name,
		files:   make(map[string]*File),
		subdirs: make(map[string]*Directory),
	}
}

// AddFile attaches f, replacing any file of the same name.
func (d *Directory) AddFile(f *File) {
	d.files[f.Name] = f
}

// AddSubdir attaches sub, replacing any subdirectory of the same name.
func (d *Directory) AddSubdir(sub *Directory) {
	d.subdirs[sub.Name] = sub
}

// RemoveFile detaches and returns the named file.
func (d *Directory) RemoveFile(name string) (*File, bool) {
	f, ok := d.files[name]
	if ok {
		delete(d.files, name)
	}

	return f, ok
}

// RemoveSubdir detaches and returns the named subdirectory.
func (d *Directory) RemoveSubdir(name string) (*Directory, bool) {
	sub, ok := d.subdirs[name]
	if ok {
		delete(d.subdirs, name)
	}

	return sub, ok
}

func (d *Directory) File(name string) (*File, bool) {
	f, ok := d.files[name]

	return f, ok
}

func (d *Directory) Subdir(name string) (*Directory, bool) {
	sub, ok := d.subdirs[name]

	return sub, ok
}

// FileNames returns the file names in ascending order.
func (d *Directory) FileNames() []string {
	return slices.Sorted(maps.Keys(d.files))
}

// SubdirNames returns the subdirectory names in ascending order.
func (d *Directory) SubdirNames() []string {
	return slices.Sorted(maps.Keys(d.subdirs))
}

// Files returns the files ordered by name.
func (d *Directory) Files() []*File {
	names := d.FileNames()
	files := make([]*File, 0, len(names))

	for _, name := range names {
		files = append(files, d.files[name])
	}

	return files
}

// Subdirs returns the subdirectories ordered by name.
func (d *Directory) Subdirs() []*Directory {
	names := d.SubdirNames()
	subdirs := make([]*Directory, 0, len(names))

	for _, name := range names {
		subdirs = append(subdirs, d.subdirs[name])
	}

	return subdirs
}

// Stats counts the directories (including d), files and content bytes of
// the subtree rooted at d.
type Stats struct {
	Dirs  uint64
	Files uint64
	Bytes uint64
}

// Stats walks the subtree rooted at d.
func (d *Directory) Stats() Stats {
	s := Stats{Dirs: 1}

	for _, f := range d.files {
		s.Files++
		s.Bytes += uint64(len(f.Content))
	}

	for _, sub := range d.subdirs {
		cs := sub.Stats()
		s.Dirs += cs.Dirs
		s.Files += cs.Files
		s.Bytes += cs.Bytes
	}

	return s
}

// Equal reports whether a and b have the same names, nesting and content.
// A nil file content equals an empty one.
func Equal(a, b *Directory) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Name != b.Name || len(a.files) != len(b.files) || len(a.subdirs) != len(b.subdirs) {
		return false
	}

	for name, fa := range a.files {
		fb, ok := b.files[name]
		if !ok || fa.Name != fb.Name || !bytes.Equal(fa.Content, fb.Content) {
			return false
		}
	}

	for name, sa := range a.subdirs {
		sb, ok := b.subdirs[name]
		if !ok || !Equal(sa, sb) {
			return false
		}
	}

	return true
}
