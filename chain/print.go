package chain

import (
	"encoding/json"
	"fmt"
	"io"
)

// printer writes the human-readable narrative of a run. Write errors are
// ignored; the narrative is best effort.
type printer struct {
	w io.Writer
}

func (p printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) blank() {
	fmt.Fprintln(p.w)
}

// value prints title followed by v as indented JSON.
func (p printer) value(title string, v interface{}) {
	p.line("%s", title)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		p.line("%+v", v)
	} else {
		p.line("%s", data)
	}
	p.blank()
}
