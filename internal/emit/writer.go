package emit

// writer accumulates rendered output and keeps track of indentation.
type writer struct {
	buf         []byte
	indentLevel int
	atLineStart bool
}

func (w *writer) writeIndent() {
	if !w.atLineStart {
		return
	}
	for range w.indentLevel * 4 {
		w.buf = append(w.buf, ' ')
	}
	w.atLineStart = false
}

func (w *writer) WriteString(s string) {
	if s == "" {
		return
	}
	w.writeIndent()
	w.buf = append(w.buf, s...)
	w.atLineStart = s[len(s)-1] == '\n'
}

// Line writes s followed by a newline.
func (w *writer) Line(s string) {
	w.WriteString(s)
	w.Newline()
}

// Newline writes a newline if the output doesn't already end with one.
func (w *writer) Newline() {
	if len(w.buf) == 0 || w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
	w.atLineStart = true
}

// Blank separates declarations with one empty line.
func (w *writer) Blank() {
	w.Newline()
	if n := len(w.buf); n >= 2 && w.buf[n-2] == '\n' {
		return
	}
	w.buf = append(w.buf, '\n')
}

func (w *writer) IndentPush() { w.indentLevel++ }

func (w *writer) IndentPop() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}

func (w *writer) Bytes() []byte { return w.buf }
