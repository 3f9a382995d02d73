// Package patcher splices extra fields into an object literal embedded in
// script source. It is best-effort text surgery over third-party, versioned
// content: every failure mode degrades to returning the input unchanged,
// never an error.
package patcher

import (
	"strings"

	"github.com/dop251/goja"
)

// Field is one key/value pair to inject. Value is JavaScript source, so
// string values need their own quotes.
type Field struct {
	Name  string
	Value string
}

// Range marks a literal inside source text; text[Start:End] spans the
// braces inclusive.
type Range struct {
	Start, End int
}

// LocateLiteral finds the first object literal following the marker: the
// marker string immediately followed by an opening brace, with the literal
// ending at the brace that returns the depth to zero. A single linear scan,
// no parsing; minified string contents containing braces can defeat it,
// which the sandbox validation in Patch catches.
func LocateLiteral(text, marker string) (Range, bool) {
	r, _, ok := locateFrom(text, marker, 0)
	return r, ok
}

func locateFrom(text, marker string, from int) (r Range, next int, ok bool) {
	for {
		i := strings.Index(text[from:], marker)
		if i < 0 {
			return Range{}, len(text), false
		}
		open := from + i + len(marker)
		next = open
		from = next
		if open >= len(text) || text[open] != '{' {
			continue
		}

		depth := 0
		for j := open; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return Range{Start: open, End: j + 1}, next, true
				}
			}
		}
		// No balanced closing brace: truncated source, give up.
		return Range{}, len(text), false
	}
}

// Splice inserts extra fields immediately before the literal's closing
// brace, leaving every other byte untouched.
func Splice(text string, r Range, fields []Field) string {
	if len(fields) == 0 || r.End <= r.Start || r.End > len(text) {
		return text
	}

	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.Name)
		b.WriteString(":")
		b.WriteString(f.Value)
		b.WriteString(",")
	}
	extra := strings.TrimSuffix(b.String(), ",")

	body := strings.TrimSpace(text[r.Start+1 : r.End-1])
	if body != "" && !strings.HasSuffix(body, ",") {
		extra = "," + extra
	}
	return text[:r.End-1] + extra + text[r.End-1:]
}

// Patch locates the marker's object literal, validates it in an isolated
// interpreter, and splices the fields in. Only a literal that evaluates
// cleanly and carries the sentinel key is eligible; otherwise the next
// marker occurrence is tried. Returns the input unchanged when no eligible
// literal exists.
func Patch(text, marker, sentinel string, fields []Field) string {
	from := 0
	for {
		r, next, ok := locateFrom(text, marker, from)
		if !ok {
			return text
		}
		if validate(text[r.Start:r.End], sentinel) {
			return Splice(text, r, fields)
		}
		from = next
	}
}

// validate evaluates the candidate as a standalone value and checks for the
// sentinel key. The interpreter is fresh per call, so the literal sees no
// surrounding scope; references to outside identifiers fail and the
// candidate is rejected.
func validate(literal, sentinel string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	vm := goja.New()
	v, err := vm.RunString("(" + literal + ")")
	if err != nil || v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return false
	}

	obj := v.ToObject(vm)
	if obj == nil {
		return false
	}
	for _, key := range obj.Keys() {
		if key == sentinel {
			return true
		}
	}
	return false
}
