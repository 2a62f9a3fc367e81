package tree

import (
	"slices"
	"sync"
)

// Root is the live tree. All access to the tree goes through its lock, which
// is held by exactly one caller at a time.
type Root struct {
	sync.Mutex
	dir  *Directory
	name string
	seed []string
}

// NewRoot returns a pointer to a new [Root] named name, pre-seeded with the
// given top-level subdirectories.
func NewRoot(name string, seed []string) *Root {
	r := &Root{
		name: name,
		seed: slices.Clone(seed),
	}
	r.dir = r.initial()

	return r
}

func (r *Root) initial() *Directory {
	dir := NewDirectory(r.name)

	for _, name := range r.seed {
		if name == "" {
			continue
		}
		dir.AddSubdir(NewDirectory(name))
	}

	return dir
}

// With runs fn with exclusive access to the root directory. The directory
// must not be retained after fn returns.
func (r *Root) With(fn func(dir *Directory) error) error {
	r.Lock()
	defer r.Unlock()

	return fn(r.dir)
}

// Replace swaps in dir as the new root, wholesale.
func (r *Root) Replace(dir *Directory) {
	r.Lock()
	defer r.Unlock()

	r.dir = dir
}

// Reset discards the tree and returns to the initial shape.
func (r *Root) Reset() {
	r.Lock()
	defer r.Unlock()

	r.dir = r.initial()
}

// Name returns the name of the current root directory.
func (r *Root) Name() string {
	r.Lock()
	defer r.Unlock()

	return r.dir.Name
}

// Stats walks the whole tree.
func (r *Root) Stats() Stats {
	r.Lock()
	defer r.Unlock()

	return r.dir.Stats()
}
