package scenario

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/state"
)

// ParseText parses the line-oriented text encoding.
func ParseText(data []byte) (*Scenario, error) {
	p := &textParser{scanner: bufio.NewScanner(bytes.NewReader(data))}
	return p.parse()
}

type textParser struct {
	scanner *bufio.Scanner
	line    int
}

// next returns the fields of the next non-blank line with comments stripped.
func (p *textParser) next() ([]string, bool) {
	for p.scanner.Scan() {
		p.line++
		text := p.scanner.Text()
		if k := strings.IndexByte(text, '#'); k >= 0 {
			text = text[:k]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == '\r'
		})
		if len(fields) > 0 {
			return fields, true
		}
	}
	return nil, false
}

func (p *textParser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *textParser) parse() (*Scenario, error) {
	header, ok := p.next()
	if !ok {
		if err := p.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEmpty
	}
	if len(header) != 2 {
		return nil, p.errorf("header must be \"<processes> <resources>\", got %d fields", len(header))
	}
	dims, err := p.ints(header)
	if err != nil {
		return nil, err
	}
	procs, res := dims[0], dims[1]
	if procs < 0 || res < 0 {
		return nil, p.errorf("process and resource counts must not be negative")
	}

	sc := &Scenario{Processes: procs, Resources: res}

	if sc.Allocation, err = p.rows("allocation", procs, res); err != nil {
		return nil, err
	}
	if sc.Maximum, err = p.rows("maximum", procs, res); err != nil {
		return nil, err
	}
	avail, err := p.rows("available", 1, res)
	if err != nil {
		return nil, err
	}
	sc.Available = avail[0]

	for {
		fields, ok := p.next()
		if !ok {
			break
		}
		req, err := p.request(fields, res)
		if err != nil {
			return nil, err
		}
		sc.Requests = append(sc.Requests, req)
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}

	return sc, nil
}

// rows reads n rows of width entries. Zero-width rows occupy no lines.
func (p *textParser) rows(what string, n, width int) ([][]int, error) {
	out := make([][]int, n)
	if width == 0 {
		for i := range out {
			out[i] = []int{}
		}
		return out, nil
	}
	for i := 0; i < n; i++ {
		fields, ok := p.next()
		if !ok {
			return nil, p.errorf("unexpected end of input: %s row %d of %d missing", what, i+1, n)
		}
		if len(fields) != width {
			return nil, p.errorf("%s row has %d entries, want %d", what, len(fields), width)
		}
		row, err := p.ints(fields)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// request parses "<process>: r0 r1 ...". The colon may be attached to the
// index or stand alone.
func (p *textParser) request(fields []string, width int) (evaluate.Request, error) {
	head := fields[0]
	rest := fields[1:]
	switch {
	case strings.HasSuffix(head, ":"):
		head = strings.TrimSuffix(head, ":")
	case len(rest) > 0 && rest[0] == ":":
		rest = rest[1:]
	case strings.Contains(head, ":"):
		k := strings.IndexByte(head, ':')
		rest = append([]string{head[k+1:]}, rest...)
		head = head[:k]
	default:
		return evaluate.Request{}, p.errorf("request must look like \"<process>: <units>...\"")
	}

	process, err := strconv.Atoi(head)
	if err != nil {
		return evaluate.Request{}, p.errorf("invalid process index %q", head)
	}
	if len(rest) != width {
		return evaluate.Request{}, p.errorf("request has %d entries, want %d", len(rest), width)
	}
	units, err := p.ints(rest)
	if err != nil {
		return evaluate.Request{}, err
	}
	return evaluate.Request{Process: process, Vector: state.Vector(units)}, nil
}

func (p *textParser) ints(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for k, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, p.errorf("invalid integer %q", f)
		}
		out[k] = v
	}
	return out, nil
}
