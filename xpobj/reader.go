package xpobj

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxLineLength = 16 * 1024 * 1024

// lineReader splits the input into statements of whitespace separated tokens.
type lineReader struct {
	s      *bufio.Scanner
	lineNo int
	tokens []string
	format int
}

func newLineReader(r io.Reader) *lineReader {
	// BOMOverride drops a leading UTF-8 BOM (and decodes UTF-16 files).
	s := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	s.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	s.Split(scanLines)
	return &lineReader{s: s}
}

// scanLines is bufio.ScanLines that also accepts a lone CR as line end.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

func (r *lineReader) errorf(kind ErrorKind, token, msg string) *ParseError {
	return &ParseError{Kind: kind, Line: r.lineNo, Token: token, Msg: msg}
}

func (r *lineReader) readLine() (string, bool, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", false, errors.Wrapf(err, "read line %d", r.lineNo+1)
		}
		return "", false, nil
	}
	r.lineNo++
	return r.s.Text(), true, nil
}

// next loads the next non-blank statement. Returns false at end of input
// when optional; otherwise running out of input or meeting a blank line is
// an error.
func (r *lineReader) next(optional bool) (bool, error) {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return false, err
		}
		if !ok {
			if optional {
				return false, nil
			}
			return false, r.errorf(ErrMisc, "", "Unexpected <EOF>")
		}
		r.tokens = strings.Fields(stripComment(line))
		if len(r.tokens) > 0 {
			return true, nil
		}
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "####_") {
			r.tokens = strings.Fields(t)[:1]
			return true, nil
		}
		if !optional {
			return false, r.errorf(ErrMisc, "", "Unexpected <EOL>")
		}
	}
}

func (r *lineReader) more() bool {
	return len(r.tokens) > 0
}

func (r *lineReader) pop() (string, bool) {
	if len(r.tokens) == 0 {
		return "", false
	}
	t := r.tokens[0]
	r.tokens = r.tokens[1:]
	return t, true
}

func (r *lineReader) input(optional bool) (string, error) {
	t, ok := r.pop()
	if !ok && !optional {
		return "", r.errorf(ErrName, "", "missing name")
	}
	return t, nil
}

func (r *lineReader) int() (int, error) {
	t, ok := r.pop()
	if !ok {
		return 0, r.errorf(ErrInteger, "", "missing integer")
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, r.errorf(ErrInteger, t, "")
	}
	return n, nil
}

// count reads a non-negative element count.
func (r *lineReader) count() (int, error) {
	n, err := r.int()
	if err == nil && n < 0 {
		return 0, r.errorf(ErrInteger, strconv.Itoa(n), "negative count")
	}
	return n, err
}

func (r *lineReader) float() (float64, error) {
	t, ok := r.pop()
	if !ok {
		return 0, r.errorf(ErrFloat, "", "missing number")
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, r.errorf(ErrFloat, t, "")
	}
	return f, nil
}

func (r *lineReader) floats(n int) ([]float64, error) {
	v := make([]float64, n)
	for i := range v {
		f, err := r.float()
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *lineReader) vertex() (Vertex, error) {
	v, err := r.floats(3)
	if err != nil {
		return Vertex{}, err
	}
	return RemapVertex(v[0], v[1], v[2]), nil
}

func (r *lineReader) uv() (UV, error) {
	v, err := r.floats(2)
	if err != nil {
		return UV{}, err
	}
	return UV{v[0], v[1]}, nil
}

// color reads an RGB triple. Before v8 components are in tenths.
func (r *lineReader) color() ([3]float64, error) {
	v, err := r.floats(3)
	if err != nil {
		return [3]float64{}, err
	}
	if r.format < 8 {
		return [3]float64{v[0] / 10, v[1] / 10, v[2] / 10}, nil
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

func (r *lineReader) rgb() ([3]float64, error) {
	v, err := r.floats(3)
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

// readHeader reads the magic lines and the texture statement.
// It returns the texture name, "" for none.
func (r *lineReader) readHeader() (string, error) {
	line, ok, err := r.readLine()
	if err != nil {
		return "", err
	}
	if c := strings.TrimPrefix(strings.TrimSpace(line), "\ufeff"); !ok || (c != "A" && c != "I") {
		return "", r.errorf(ErrHeader, c, "expected A or I")
	}

	line, _, err = r.readLine()
	if err != nil {
		return "", err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", r.errorf(ErrHeader, "", "missing version")
	}
	switch fields[0] {
	case "2":
		r.format = 6
	case "700", "800":
		line, _, err = r.readLine()
		if err != nil {
			return "", err
		}
		if f := strings.Fields(stripComment(line)); len(f) == 0 || f[0] != "OBJ" {
			return "", r.errorf(ErrHeader, line, "expected OBJ")
		}
		if fields[0] == "700" {
			r.format = 7
		} else {
			r.format = 8
		}
	default:
		return "", r.errorf(ErrHeader, fields[0], "unsupported version")
	}

	var tex string
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", r.errorf(ErrMisc, "", "Unexpected <EOF>")
		}
		tex = strings.TrimSpace(stripComment(line))
		if strings.HasPrefix(tex, "GLOBAL_") || tex == "TILTED" {
			continue
		}
		if tex != "" {
			break
		}
	}

	if r.format >= 8 {
		if !strings.HasPrefix(tex, "TEXTURE") {
			return "", r.errorf(ErrHeader, tex, "expected TEXTURE")
		}
		tex = strings.TrimSpace(tex[len("TEXTURE"):])
	}
	if strings.ToLower(tex) == "none" {
		tex = ""
	}
	return tex, nil
}
