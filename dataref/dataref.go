// Package dataref reads the DataRefs.txt registry of simulator datarefs.
package dataref

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const FileName = "DataRefs.txt"

// datarefs under this prefix are skipped, there are too many ambiguous ones.
const multiplayerPrefix = "sim/multiplayer/"

var ErrCorrupt = errors.New("corrupt " + FileName + " file")

// array sizes given by name
var counts = map[string]int{
	"engines": 8,
	"wings":   56, // including props and pylons?
	"doors":   20,
	"gear":    10,
}

type Status int

const (
	Unknown Status = iota
	Unambiguous
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Unambiguous:
		return "unambiguous"
	case Ambiguous:
		return "ambiguous"
	}
	return "unknown"
}

type Resolution struct {
	Status Status
	// Namespace is the path up to and including the last '/'.
	Namespace string
	// Arity is 1 for scalars, the array size for arrays and 0 for unusable types.
	Arity int
}

type entry struct {
	namespace string
	arity     int
}

// Registry maps the short name of a dataref to its namespace.
// A nil entry marks an ambiguous name.
type Registry struct {
	refs map[string]*entry
}

func (r *Registry) Resolve(name string) Resolution {
	if r == nil {
		return Resolution{}
	}
	e, ok := r.refs[name]
	if !ok {
		return Resolution{}
	}
	if e == nil {
		return Resolution{Status: Ambiguous}
	}
	return Resolution{Status: Unambiguous, Namespace: e.namespace, Arity: e.arity}
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.refs)
}

func arity(typ string) (int, error) {
	lower := strings.ToLower(typ)
	for _, c := range []string{"int", "float", "double"} {
		if !strings.HasPrefix(lower, c) {
			continue
		}
		if len(typ) == len(c) {
			return 1, nil
		}
		// eg float[8] or int[engines]
		if len(typ) < len(c)+2 {
			return 0, ErrCorrupt
		}
		size := typ[len(c)+1 : len(typ)-1]
		if n, ok := counts[size]; ok {
			return n, nil
		}
		n, err := strconv.Atoi(size)
		if err != nil {
			return 0, errors.Wrapf(ErrCorrupt, "array size %q", size)
		}
		return n, nil
	}
	return 0, nil
}

func Parse(r io.Reader) (*Registry, error) {
	s := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, errors.Wrap(err, "read header")
		}
		return nil, errors.Wrap(ErrCorrupt, "empty file")
	}
	if d := strings.Fields(s.Text()); len(d) != 7 || d[0] != "2" {
		return nil, errors.Wrap(ErrCorrupt, "bad header")
	}

	reg := &Registry{refs: map[string]*entry{}}
	line := 1
	for s.Scan() {
		line++
		d := strings.Fields(s.Text())
		if len(d) == 0 || strings.HasPrefix(d[0], multiplayerPrefix) {
			continue
		}
		if len(d) < 3 {
			return nil, errors.Wrapf(ErrCorrupt, "line %d", line)
		}
		l := strings.LastIndexByte(d[0], '/')
		if l < 0 {
			return nil, errors.Wrapf(ErrCorrupt, "line %d", line)
		}
		ref := d[0][l+1:]
		if _, ok := reg.refs[ref]; ok {
			reg.refs[ref] = nil
			continue
		}
		n, err := arity(d[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		reg.refs[ref] = &entry{namespace: d[0][:l+1], arity: n}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return reg, nil
}

func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open datarefs")
	}
	defer f.Close()
	reg, err := Parse(f)
	return reg, errors.Wrap(err, path)
}

// Find returns the first DataRefs.txt found in dirs.
func Find(dirs ...string) (string, error) {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		p := filepath.Join(d, FileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", errors.Wrap(os.ErrNotExist, "missing "+FileName+" file")
}
