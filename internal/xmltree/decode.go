package xmltree

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var errNoRoot = errors.New("document has no root element")

type frame struct {
	el       *Element
	text     strings.Builder
	hasChild bool
}

// decode builds an Element tree from raw XML bytes.
func decode(data []byte, path string) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var (
		root  *Element
		stack []*frame
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			el := &Element{
				Tag:   t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
				Path:  path,
				Line:  line,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs[a.Name.Local] = a.Value
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("line %d: unexpected element <%s> after document root", line, el.Tag)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.hasChild = true
				parent.el.Children = append(parent.el.Children, el)
			}
			stack = append(stack, &frame{el: el})

		case xml.EndElement:
			top := stack[len(stack)-1]
			top.el.Text = strings.TrimSpace(top.text.String())
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if !top.hasChild {
				top.text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errNoRoot
	}
	if len(stack) != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// charsetReader accepts the single-byte Latin encodings that show up in
// hand-edited test artifacts; encoding/xml handles UTF-8 on its own.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1", "windows-1252", "cp1252":
		return &latin1Reader{r: bufio.NewReader(input)}, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

type latin1Reader struct {
	r   *bufio.Reader
	buf []byte
}

func (l *latin1Reader) Read(p []byte) (int, error) {
	for len(l.buf) < len(p) {
		b, err := l.r.ReadByte()
		if err != nil {
			if len(l.buf) == 0 {
				return 0, err
			}
			break
		}
		l.buf = utf8.AppendRune(l.buf, rune(b))
	}
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	return n, nil
}
