// Package view renders the server-side pages and isolates rendering
// failures behind a Boundary.
package view

import (
	"fmt"
	"io"
	"runtime/debug"
)

// View renders one piece of a page.
type View interface {
	Render(w io.Writer) error
}

// Func adapts a plain function to View.
type Func func(w io.Writer) error

func (f Func) Render(w io.Writer) error { return f(w) }

// RenderError is a failed render annotated with the chain of named views
// that were active, outermost first.
type RenderError struct {
	Path []string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", joinPath(e.Path), e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// renderPanic carries a recovered panic up through enclosing named views.
type renderPanic struct {
	path  []string
	value any
	stack []byte
}

type namedView struct {
	name  string
	inner View
}

// Named labels v so failures inside it report where they happened.
func Named(name string, v View) View {
	return &namedView{name: name, inner: v}
}

func (n *namedView) Render(w io.Writer) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if p, ok := r.(*renderPanic); ok {
			p.path = append([]string{n.name}, p.path...)
			panic(p)
		}
		panic(&renderPanic{path: []string{n.name}, value: r, stack: debug.Stack()})
	}()

	if err := n.inner.Render(w); err != nil {
		if re, ok := err.(*RenderError); ok {
			return &RenderError{Path: append([]string{n.name}, re.Path...), Err: re.Err}
		}
		return &RenderError{Path: []string{n.name}, Err: err}
	}
	return nil
}

// Sequence renders views one after another, stopping at the first error.
func Sequence(views ...View) View {
	return Func(func(w io.Writer) error {
		for _, v := range views {
			if err := v.Render(w); err != nil {
				return err
			}
		}
		return nil
	})
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "(root)"
	}
	out := path[0]
	for _, p := range path[1:] {
		out += " > " + p
	}
	return out
}
