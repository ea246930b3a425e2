package topology

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The graph file format is GML-style: a `graph [ ... ]` block holding
// `node [ key value ... ]` and `edge [ key value ... ]` blocks. Values are
// bare words, numbers or quoted strings. Unknown keys are skipped so
// graphs exported by other tooling load without stripping.

type token struct {
	text   string
	line   int
	quoted bool
}

type tokenizer struct {
	input []rune
	pos   int
	line  int
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{input: []rune(input), line: 1}
}

// next returns the next token, or nil at end of input.
func (t *tokenizer) next() (*token, error) {
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		switch {
		case c == '\n':
			t.line++
			t.pos++
		case unicode.IsSpace(c):
			t.pos++
		case c == '#':
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.pos++
			}
		case c == '[' || c == ']':
			t.pos++
			return &token{text: string(c), line: t.line}, nil
		case c == '"':
			start := t.line
			t.pos++
			var sb strings.Builder
			for {
				if t.pos >= len(t.input) {
					return nil, &ParseError{Line: start, Msg: "unterminated quoted string"}
				}
				c = t.input[t.pos]
				if c == '"' {
					t.pos++
					return &token{text: sb.String(), line: start, quoted: true}, nil
				}
				if c == '\n' {
					t.line++
				}
				sb.WriteRune(c)
				t.pos++
			}
		default:
			start := t.pos
			for t.pos < len(t.input) {
				c = t.input[t.pos]
				if unicode.IsSpace(c) || c == '[' || c == ']' || c == '"' {
					break
				}
				t.pos++
			}
			return &token{text: string(t.input[start:t.pos]), line: t.line}, nil
		}
	}
	return nil, nil
}

// Parse parses graph text into a validated Graph.
func Parse(input string) (*Graph, error) {
	tz := newTokenizer(input)

	tok, err := tz.next()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, &ParseError{Line: 1, Msg: "empty graph file"}
	}
	if tok.text != "graph" {
		return nil, &ParseError{Line: tok.line, Msg: fmt.Sprintf("expected 'graph', got %q", tok.text)}
	}
	tok, err = tz.next()
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.text != "[" {
		return nil, &ParseError{Line: tz.line, Msg: "expected '[' after 'graph'"}
	}

	g := &Graph{}
	for {
		tok, err = tz.next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, &ParseError{Line: tz.line, Msg: "unexpected end of input, graph block not closed"}
		}
		if tok.text == "]" && !tok.quoted {
			break
		}
		switch tok.text {
		case "node":
			attrs, line, err := parseBlock(tz)
			if err != nil {
				return nil, err
			}
			n, err := nodeFromAttrs(attrs, line)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, n)
		case "edge":
			attrs, line, err := parseBlock(tz)
			if err != nil {
				return nil, err
			}
			e, err := edgeFromAttrs(attrs, line)
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, e)
		default:
			// Top-level scalar attribute such as `directed 0`; consume value.
			if _, err := tz.next(); err != nil {
				return nil, err
			}
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

type attrValue struct {
	text string
	line int
}

// parseBlock reads `[ key value ... ]` into an attribute map. Later
// occurrences of a key win, matching exporter behavior.
func parseBlock(tz *tokenizer) (map[string]attrValue, int, error) {
	tok, err := tz.next()
	if err != nil {
		return nil, 0, err
	}
	if tok == nil || tok.text != "[" || tok.quoted {
		line := tz.line
		if tok != nil {
			line = tok.line
		}
		return nil, 0, &ParseError{Line: line, Msg: "expected '[' to open block"}
	}
	blockLine := tok.line

	attrs := make(map[string]attrValue)
	for {
		key, err := tz.next()
		if err != nil {
			return nil, 0, err
		}
		if key == nil {
			return nil, 0, &ParseError{Line: tz.line, Msg: "unexpected end of input inside block"}
		}
		if key.text == "]" && !key.quoted {
			return attrs, blockLine, nil
		}
		val, err := tz.next()
		if err != nil {
			return nil, 0, err
		}
		if val == nil || (!val.quoted && (val.text == "[" || val.text == "]")) {
			return nil, 0, &ParseError{Line: key.line, Msg: fmt.Sprintf("attribute %q has no value", key.text)}
		}
		attrs[key.text] = attrValue{text: val.text, line: key.line}
	}
}

func nodeFromAttrs(attrs map[string]attrValue, line int) (Node, error) {
	n := Node{ID: -1, line: line}

	idAttr, ok := attrs["id"]
	if !ok {
		return n, nodeError(-1, line, ErrMissingNodeID)
	}
	id, err := strconv.Atoi(idAttr.text)
	if err != nil {
		return n, &ParseError{Line: idAttr.line, Msg: fmt.Sprintf("node id %q is not an integer", idAttr.text)}
	}
	n.ID = id

	for key, v := range attrs {
		switch key {
		case "id":
		case "AS", "as":
			n.AS = v.text
		case "ip", "ip_addr", "address", "ip_address":
			n.IP = v.text
		case "label":
			n.Label = v.text
		case "country_code":
			n.CountryCode = v.text
		case "bandwidth":
			n.Bandwidth = v.text
		case "bandwidth_up":
			n.BandwidthUp = v.text
		case "bandwidth_down":
			n.BandwidthDown = v.text
		case "packet_loss":
			f, err := strconv.ParseFloat(v.text, 64)
			if err != nil {
				return n, &ParseError{Line: v.line, Msg: fmt.Sprintf("node %d: packet_loss %q is not a number", id, v.text)}
			}
			n.PacketLoss = f
		case "longitude":
			n.Longitude, _ = strconv.ParseFloat(v.text, 64)
		case "latitude":
			n.Latitude, _ = strconv.ParseFloat(v.text, 64)
		}
	}
	return n, nil
}

func edgeFromAttrs(attrs map[string]attrValue, line int) (Edge, error) {
	e := Edge{Latency: DefaultLatency, Bandwidth: DefaultBandwidth, line: line}

	src, okS := attrs["source"]
	dst, okT := attrs["target"]
	if !okS || !okT {
		return e, edgeError(-1, line, ErrMissingEndpoint)
	}
	var err error
	if e.Source, err = strconv.Atoi(src.text); err != nil {
		return e, &ParseError{Line: src.line, Msg: fmt.Sprintf("edge source %q is not an integer", src.text)}
	}
	if e.Target, err = strconv.Atoi(dst.text); err != nil {
		return e, &ParseError{Line: dst.line, Msg: fmt.Sprintf("edge target %q is not an integer", dst.text)}
	}

	if v, ok := attrs["latency"]; ok {
		e.Latency = v.text
	}
	if v, ok := attrs["bandwidth"]; ok {
		e.Bandwidth = v.text
	}
	if v, ok := attrs["packet_loss"]; ok {
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil {
			return e, &ParseError{Line: v.line, Msg: fmt.Sprintf("edge packet_loss %q is not a number", v.text)}
		}
		e.PacketLoss = f
	}
	return e, nil
}
