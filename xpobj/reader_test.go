package xpobj

import (
	"strings"
	"testing"
)

func TestReadHeader(t *testing.T) {
	tests := []struct {
		src     string
		format  int
		texture string
	}{
		{"A\n2\nmytex\n", 6, "mytex"},
		{"I\n2 // version\n\nmytex.bmp\n", 6, "mytex.bmp"},
		{"\ufeffA\n700\nOBJ\n\nfolder:tex\n", 7, "folder:tex"},
		{"A\r\n800\r\nOBJ\r\n\r\nTEXTURE\tfoo bar.png\r\n", 8, "foo bar.png"},
		{"A\r800\rOBJ\rGLOBAL_no_blend 0.5\rTILTED\rTEXTURE none\r", 8, ""},
		{"A\n800\nOBJ\nTEXTURE\n", 8, ""},
	}
	for _, tt := range tests {
		r := newLineReader(strings.NewReader(tt.src))
		tex, err := r.readHeader()
		if err != nil {
			t.Errorf("%q: %v", tt.src, err)
			continue
		}
		if r.format != tt.format || tex != tt.texture {
			t.Errorf("%q: format %d texture %q", tt.src, r.format, tex)
		}
	}
}

func TestReadHeaderErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"X\n800\nOBJ\nTEXTURE\n",
		"A\n900\nOBJ\nTEXTURE\n",
		"A\n800\nOBJECT\nTEXTURE\n",
		"A\n800\nOBJ\nfoo.png\n",
		"A\n\n",
	} {
		_, err := newLineReader(strings.NewReader(src)).readHeader()
		if !IsKind(err, ErrHeader) {
			t.Errorf("%q: got %v, want header error", src, err)
		}
	}
}

func TestTokens(t *testing.T) {
	src := "VT 1 2 3 # comment\n\n  ####_alpha\n// only comment\nTRIS x\n"
	r := newLineReader(strings.NewReader(src))

	if ok, err := r.next(true); !ok || err != nil {
		t.Fatal(ok, err)
	}
	if tok, _ := r.pop(); tok != "VT" {
		t.Errorf("token %q", tok)
	}
	v, err := r.vertex()
	if err != nil {
		t.Fatal(err)
	}
	if v != (Vertex{1, -3, 2}) {
		t.Errorf("vertex %v", v)
	}
	if r.more() {
		t.Error("comment should be stripped")
	}

	if _, err := r.next(false); !IsKind(err, ErrMisc) {
		t.Errorf("blank line: got %v", err)
	}
	if ok, _ := r.next(true); !ok || r.tokens[0] != "####_alpha" {
		t.Errorf("tokens %v", r.tokens)
	}
	if ok, _ := r.next(true); !ok {
		t.Fatal("expected TRIS")
	}
	r.pop()
	_, err = r.int()
	if !IsKind(err, ErrInteger) {
		t.Errorf("got %v", err)
	}
	if pe, ok := err.(*ParseError); !ok || pe.Line != 5 || pe.Token != "x" {
		t.Errorf("got %#v", err)
	}
	if _, err := r.int(); !IsKind(err, ErrInteger) {
		t.Errorf("missing integer: got %v", err)
	}
	if ok, err := r.next(true); ok || err != nil {
		t.Errorf("end of input: %v %v", ok, err)
	}
	if _, err := r.next(false); !IsKind(err, ErrMisc) {
		t.Errorf("eof: got %v", err)
	}
}

func TestColor(t *testing.T) {
	r := newLineReader(strings.NewReader("5 10 0\n"))
	r.format = 7
	r.next(false)
	c, err := r.color()
	if err != nil {
		t.Fatal(err)
	}
	if c != [3]float64{0.5, 1, 0} {
		t.Errorf("v7 color %v", c)
	}
}
