package manuscript

import "strings"

// outline builds a section tree from a flat stream of headings and
// paragraphs. A heading nests under the nearest open heading of a lower
// level; paragraphs attach to the most recent heading.
type outline struct {
	root    Section
	open    []openSection
	pending []string
}

type openSection struct {
	section *Section
	level   int
}

func newOutline() *outline {
	o := &outline{}
	o.open = []openSection{{section: &o.root}}
	return o
}

func (o *outline) heading(level int, title string) {
	o.flush()
	s := &Section{Title: title}
	for len(o.open) > 1 && o.open[len(o.open)-1].level >= level {
		o.open = o.open[:len(o.open)-1]
	}
	parent := o.open[len(o.open)-1].section
	parent.Children = append(parent.Children, s)
	o.open = append(o.open, openSection{section: s, level: level})
}

func (o *outline) paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		o.pending = append(o.pending, text)
	}
}

func (o *outline) flush() {
	if len(o.pending) == 0 {
		return
	}
	cur := o.open[len(o.open)-1].section
	text := strings.Join(o.pending, "\n\n")
	if cur.Text != "" {
		text = cur.Text + "\n\n" + text
	}
	cur.Text = text
	o.pending = o.pending[:0]
}

// sections returns the finished tree. Prose before the first heading becomes
// a leading untitled section.
func (o *outline) sections() []*Section {
	o.flush()
	if o.root.Text == "" {
		return o.root.Children
	}
	return append([]*Section{{Text: o.root.Text}}, o.root.Children...)
}
