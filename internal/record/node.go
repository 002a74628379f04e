// Package record decodes the table API payload into an ordered record tree
// and searches that tree for order rows.
package record

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindMap
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindSeq:
		return "seq"
	default:
		return "scalar"
	}
}

// Node is one value in the record tree. Maps keep their keys in document
// order so traversal follows the layout of the payload.
type Node struct {
	Kind   Kind
	Keys   []string
	Fields map[string]*Node
	Items  []*Node
	// Scalar holds string, json.Number, bool or nil.
	Scalar any
}

// Get returns the child stored under key, or nil when n is not a map or the
// key is absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMap {
		return nil
	}
	return n.Fields[key]
}

// Empty reports whether n carries no data: nil, a null scalar, or a map or
// sequence without children.
func (n *Node) Empty() bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindMap:
		return len(n.Keys) == 0
	case KindSeq:
		return len(n.Items) == 0
	default:
		return n.Scalar == nil
	}
}

// Text returns the scalar as a string. Non-string scalars and containers
// return "".
func (n *Node) Text() string {
	if n == nil || n.Kind != KindScalar {
		return ""
	}
	s, _ := n.Scalar.(string)
	return s
}

// Interface converts the tree back into plain Go values: map[string]any,
// []any, string, json.Number, bool and nil.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindMap:
		m := make(map[string]any, len(n.Keys))
		for _, k := range n.Keys {
			m[k] = n.Fields[k].Interface()
		}
		return m
	case KindSeq:
		s := make([]any, len(n.Items))
		for i, item := range n.Items {
			s[i] = item.Interface()
		}
		return s
	default:
		return n.Scalar
	}
}

// Visit walks the tree depth-first: a map's values in key order, a
// sequence's elements in order. fn sees every node before its children.
func (n *Node) Visit(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch n.Kind {
	case KindMap:
		for _, k := range n.Keys {
			n.Fields[k].Visit(fn)
		}
	case KindSeq:
		for _, item := range n.Items {
			item.Visit(fn)
		}
	}
}

// ParseJSON builds an ordered tree from a JSON document. Numbers are kept as
// json.Number so the tree can be re-encoded without precision loss.
func ParseJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, eris.New("record: trailing data after JSON value")
	}
	return root, nil
}

// ParseJSONString is ParseJSON over a string.
func ParseJSONString(s string) (*Node, error) {
	return ParseJSON(strings.NewReader(s))
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, eris.Wrap(err, "record: read token")
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return &Node{Kind: KindScalar, Scalar: tok}, nil
	}

	switch delim {
	case '{':
		n := &Node{Kind: KindMap, Fields: make(map[string]*Node)}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, eris.Wrap(err, "record: read object key")
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, eris.Errorf("record: object key is %T", keyTok)
			}
			child, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := n.Fields[key]; !dup {
				n.Keys = append(n.Keys, key)
			}
			n.Fields[key] = child
		}
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrap(err, "record: read object end")
		}
		return n, nil
	case '[':
		n := &Node{Kind: KindSeq}
		for dec.More() {
			child, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrap(err, "record: read array end")
		}
		return n, nil
	default:
		return nil, eris.Errorf("record: unexpected delimiter %q", rune(delim))
	}
}
