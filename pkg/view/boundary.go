package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
)

// State of a Boundary after Render.
type State int

const (
	Normal State = iota
	Faulted
)

func (s State) String() string {
	if s == Faulted {
		return "faulted"
	}
	return "normal"
}

// Fault describes why a boundary fell back.
type Fault struct {
	Summary string
	Path    []string
	Stack   string
}

// Trace is the text shown in the fallback's expandable panel.
func (f *Fault) Trace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "view: %s\n", joinPath(f.Path))
	if f.Stack != "" {
		b.WriteString("\n")
		b.WriteString(f.Stack)
	}
	return b.String()
}

// Boundary renders a root view and, if it fails with an error or panic,
// replaces the whole output with a fallback page instead. Partial output
// of the failed render is discarded. A Boundary is meant to live for one
// request; there is no retry besides the reload the fallback offers.
type Boundary struct {
	name   string
	root   View
	logger *slog.Logger

	state State
	fault *Fault
}

// NewBoundary wraps root. name appears in logs and the fault path.
func NewBoundary(name string, root View, logger *slog.Logger) *Boundary {
	return &Boundary{name: name, root: root, logger: logger}
}

// State reports Normal until a render has failed.
func (b *Boundary) State() State { return b.state }

// Fault is nil in the Normal state.
func (b *Boundary) Fault() *Fault { return b.fault }

// Render writes either the root view's output or the fallback page. The
// returned error only reports a failure to write to w.
func (b *Boundary) Render(w io.Writer) error {
	var buf bytes.Buffer
	if fault := b.capture(&buf); fault != nil {
		b.state = Faulted
		b.fault = fault
		if b.logger != nil {
			b.logger.Error("view render failed", "boundary", b.name, "path", joinPath(fault.Path), "error", fault.Summary)
		}
		return fallbackTmpl.Execute(w, fault)
	}
	b.state = Normal
	b.fault = nil
	_, err := buf.WriteTo(w)
	return err
}

func (b *Boundary) capture(buf *bytes.Buffer) (fault *Fault) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if p, ok := r.(*renderPanic); ok {
			fault = &Fault{
				Summary: fmt.Sprintf("panic: %v", p.value),
				Path:    append([]string{b.name}, p.path...),
				Stack:   string(p.stack),
			}
			return
		}
		fault = &Fault{
			Summary: fmt.Sprintf("panic: %v", r),
			Path:    []string{b.name},
			Stack:   string(debug.Stack()),
		}
	}()

	err := b.root.Render(buf)
	if err == nil {
		return nil
	}
	path := []string{b.name}
	var re *RenderError
	if errors.As(err, &re) {
		path = append(path, re.Path...)
		err = re.Err
	}
	return &Fault{Summary: err.Error(), Path: path}
}

var fallbackTmpl = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Something went wrong</title>
<style>
body{font-family:system-ui,sans-serif;max-width:720px;margin:4rem auto;padding:0 1rem;color:#222}
.summary{background:#fdecea;border:1px solid #f5c2c0;padding:1rem;border-radius:6px}
button{margin:1rem 0;padding:.5rem 1rem;font-size:1rem;cursor:pointer}
pre{white-space:pre-wrap;font-size:.8rem;background:#f6f6f6;padding:1rem;overflow:auto}
</style></head>
<body>
<h1>Something went wrong</h1>
<p class="summary" data-state="faulted">{{.Summary}}</p>
<form method="get"><button type="submit" onclick="window.location.reload();return false;">Reload page</button></form>
<details><summary>Technical details</summary><pre>{{.Trace}}</pre></details>
</body>
</html>
`))
