package tree

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
)

// Kind tells files and directories apart.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	if k == KindDir {
		return "folder"
	}

	return "file"
}

// IsFileName reports whether name denotes a file rather than a directory.
func IsFileName(name string) bool {
	return strings.Contains(name, ".")
}

// KindOf classifies name by [IsFileName].
func KindOf(name string) Kind {
	if IsFileName(name) {
		return KindFile
	}

	return KindDir
}

// resolve walks cwd (a path of subdirectory names below the root) from dir.
func resolve(dir *Directory, cwd []string) (*Directory, error) {
	for _, part := range cwd {
		sub, ok := dir.Subdir(part)
		if !ok {
			return nil, fmt.Errorf("%w: directory %q", ErrNotFound, part)
		}
		dir = sub
	}

	return dir, nil
}

// at runs fn on the directory at cwd under the tree lock.
func (r *Root) at(cwd []string, fn func(dir *Directory) error) error {
	return r.With(func(root *Directory) error {
		dir, err := resolve(root, cwd)
		if err != nil {
			return err
		}

		return fn(dir)
	})
}

// Make creates a file or directory in cwd, depending on [IsFileName].
func (r *Root) Make(cwd []string, name string) (Kind, error) {
	if name == "" {
		return KindFile, ErrEmptyName
	}

	kind := KindOf(name)

	err := r.at(cwd, func(dir *Directory) error {
		if kind == KindFile {
			if _, ok := dir.File(name); ok {
				return fmt.Errorf("%w: %q", ErrExists, name)
			}
			dir.AddFile(NewFile(name))

			return nil
		}

		if _, ok := dir.Subdir(name); ok {
			return fmt.Errorf("%w: %q", ErrExists, name)
		}
		dir.AddSubdir(NewDirectory(name))

		return nil
	})

	return kind, err
}

// Delete removes a file or directory from cwd, depending on [IsFileName].
// Directories are removed together with their contents.
func (r *Root) Delete(cwd []string, name string) (Kind, error) {
	if name == "" {
		return KindFile, ErrEmptyName
	}

	kind := KindOf(name)

	err := r.at(cwd, func(dir *Directory) error {
		var removed bool
		if kind == KindFile {
			_, removed = dir.RemoveFile(name)
		} else {
			_, removed = dir.RemoveSubdir(name)
		}

		if !removed {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}

		return nil
	})

	return kind, err
}

// Read returns a copy of the content of a file in cwd.
func (r *Root) Read(cwd []string, name string) ([]byte, error) {
	var content []byte

	err := r.at(cwd, func(dir *Directory) error {
		f, ok := dir.File(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		content = slices.Clone(f.Content)

		return nil
	})

	return content, err
}

// List returns the entries of cwd, or of its subdirectory name when given.
// Subdirectories come first and carry a trailing slash.
func (r *Root) List(cwd []string, name string) ([]string, error) {
	var entries []string

	err := r.at(cwd, func(dir *Directory) error {
		if name != "" {
			sub, ok := dir.Subdir(name)
			if !ok {
				return fmt.Errorf("%w: %q", ErrNotFound, name)
			}
			dir = sub
		}

		for _, sub := range dir.SubdirNames() {
			entries = append(entries, sub+"/")
		}
		entries = append(entries, dir.FileNames()...)

		return nil
	})

	return entries, err
}

// Void clears the content of a file in cwd.
func (r *Root) Void(cwd []string, name string) error {
	return r.at(cwd, func(dir *Directory) error {
		f, ok := dir.File(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		f.Clear()

		return nil
	})
}

// Write overwrites the content of a file in cwd, creating it if missing.
func (r *Root) Write(cwd []string, name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}

	return r.at(cwd, func(dir *Directory) error {
		f, ok := dir.File(name)
		if !ok {
			f = NewFile(name)
			dir.AddFile(f)
		}
		f.Overwrite(data)

		return nil
	})
}

// Append adds data to the end of a file in cwd, creating it if missing.
func (r *Root) Append(cwd []string, name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}

	return r.at(cwd, func(dir *Directory) error {
		f, ok := dir.File(name)
		if !ok {
			f = NewFile(name)
			dir.AddFile(f)
		}
		f.Append(data)

		return nil
	})
}

// Seek returns the names of the files in cwd whose content contains pattern.
func (r *Root) Seek(cwd []string, pattern []byte) ([]string, error) {
	var matches []string

	err := r.at(cwd, func(dir *Directory) error {
		for _, f := range dir.Files() {
			if bytes.Contains(f.Content, pattern) {
				matches = append(matches, f.Name)
			}
		}

		return nil
	})

	return matches, err
}

// Enter resolves a slash-separated directory path from the root and returns
// it as the new cwd.
func (r *Root) Enter(target string) ([]string, error) {
	trimmed := strings.TrimLeft(target, " /")
	if trimmed == "" {
		return nil, ErrEmptyName
	}

	parts := slices.DeleteFunc(strings.Split(trimmed, "/"), func(s string) bool {
		return s == ""
	})

	if err := r.at(parts, func(*Directory) error { return nil }); err != nil {
		return nil, err
	}

	return parts, nil
}

// Leave returns the parent of cwd.
func Leave(cwd []string) ([]string, error) {
	if len(cwd) == 0 {
		return cwd, ErrAtRoot
	}

	return slices.Clone(cwd[:len(cwd)-1]), nil
}

// Names returns the subdirectory and file names of cwd.
func (r *Root) Names(cwd []string) ([]string, []string, error) {
	var dirs, files []string

	err := r.at(cwd, func(dir *Directory) error {
		dirs = dir.SubdirNames()
		files = dir.FileNames()

		return nil
	})

	return dirs, files, err
}
