package diagnostics

import (
	"fmt"
	"sync"
)

// Diagnostic is a single validation finding
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Entity   string   `json:"entity,omitempty"`
	Context  string   `json:"context,omitempty"`
}

// Format builds a diagnostic for code with the catalog message. Severity is
// assigned by the sink method the diagnostic is passed to.
func Format(code Code, file string, line int, context string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: code.Message(),
		File:    file,
		Line:    line,
		Context: context,
	}
}

// WithEntity returns a copy of d tagged with an entity type label
func (d Diagnostic) WithEntity(entity string) Diagnostic {
	d.Entity = entity
	return d
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.File, d.Line)
	}

	s := fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	if loc != "" {
		s = fmt.Sprintf("%s: %s", loc, s)
	}
	if d.Entity != "" {
		s = fmt.Sprintf("%s [%s]", s, d.Entity)
	}
	if d.Context != "" {
		s = fmt.Sprintf("%s (%s)", s, d.Context)
	}
	return s
}

// Sink accumulates diagnostics. Implementations are append-only.
type Sink interface {
	AddWarning(d Diagnostic)
	AddError(d Diagnostic)
}

// Summary counts diagnostics by severity and code
type Summary struct {
	Total    int          `json:"total"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
	ByCode   map[Code]int `json:"by_code,omitempty"`
}

// Summarize computes a summary over diags
func Summarize(diags []Diagnostic) Summary {
	summary := Summary{
		Total:  len(diags),
		ByCode: make(map[Code]int),
	}
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			summary.Errors++
		case SeverityWarning:
			summary.Warnings++
		}
		summary.ByCode[d.Code]++
	}
	return summary
}

// Collector is a Sink that keeps every diagnostic in insertion order.
// It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{diags: make([]Diagnostic, 0)}
}

// AddWarning records d as a warning
func (c *Collector) AddWarning(d Diagnostic) {
	d.Severity = SeverityWarning
	c.add(d)
}

// AddError records d as an error
func (c *Collector) AddError(d Diagnostic) {
	d.Severity = SeverityError
	c.add(d)
}

func (c *Collector) add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of all recorded diagnostics
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Errors returns recorded errors
func (c *Collector) Errors() []Diagnostic {
	return c.bySeverity(SeverityError)
}

// Warnings returns recorded warnings
func (c *Collector) Warnings() []Diagnostic {
	return c.bySeverity(SeverityWarning)
}

func (c *Collector) bySeverity(severity Severity) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, 0)
	for _, d := range c.diags {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// WithCode returns recorded diagnostics carrying code
func (c *Collector) WithCode(code Code) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, 0)
	for _, d := range c.diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error was recorded
func (c *Collector) HasErrors() bool {
	return len(c.Errors()) > 0
}

// Len returns the number of recorded diagnostics
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Summary summarizes recorded diagnostics
func (c *Collector) Summary() Summary {
	return Summarize(c.Diagnostics())
}

// Filter forwards diagnostics to another sink, dropping ignored codes
type Filter struct {
	next   Sink
	ignore map[Code]bool
}

// NewFilter creates a filter in front of next
func NewFilter(next Sink, ignore ...Code) *Filter {
	f := &Filter{
		next:   next,
		ignore: make(map[Code]bool, len(ignore)),
	}
	for _, code := range ignore {
		f.ignore[code] = true
	}
	return f
}

// AddWarning forwards d unless its code is ignored
func (f *Filter) AddWarning(d Diagnostic) {
	if f.ignore[d.Code] {
		return
	}
	f.next.AddWarning(d)
}

// AddError forwards d unless its code is ignored
func (f *Filter) AddError(d Diagnostic) {
	if f.ignore[d.Code] {
		return
	}
	f.next.AddError(d)
}
