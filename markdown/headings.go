package markdown

// Heading is one entry of the enclosing-section path.
type Heading struct {
	Level int // 1-6
	Title string
}

// headingStack models the current path of enclosing sections. push is its
// only mutation: a heading of level L drops every entry with level >= L, so
// siblings replace each other and no two entries share a level.
type headingStack []Heading

func (s *headingStack) push(level int, title string) {
	kept := (*s)[:0]
	for _, h := range *s {
		if h.Level < level {
			kept = append(kept, h)
		}
	}
	*s = append(kept, Heading{Level: level, Title: title})
}

// titles returns a copy of the titles, outermost first.
func (s headingStack) titles() []string {
	out := make([]string, 0, len(s))
	for _, h := range s {
		out = append(out, h.Title)
	}
	return out
}
