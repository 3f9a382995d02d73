package patcher

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateLiteral(t *testing.T) {
	text := `var x=1;options={"apiUrl":"x",nested:{a:1}};more()`

	r, ok := LocateLiteral(text, "options=")
	require.True(t, ok)
	assert.Equal(t, `{"apiUrl":"x",nested:{a:1}}`, text[r.Start:r.End])
}

func TestLocateLiteralNoMarker(t *testing.T) {
	_, ok := LocateLiteral("var x = {}", "options=")
	assert.False(t, ok)
}

func TestLocateLiteralUnbalanced(t *testing.T) {
	_, ok := LocateLiteral("options={a:{b:1}", "options=")
	assert.False(t, ok)
}

func TestPatchInjectsFields(t *testing.T) {
	text := `foo();options={"apiUrl":"x"};bar()`

	out := Patch(text, "options=", "apiUrl", []Field{
		{Name: "host", Value: `"h"`},
		{Name: "port", Value: "21025"},
	})

	// Everything outside the splice region is byte-identical.
	assert.True(t, strings.HasPrefix(out, `foo();options={"apiUrl":"x"`))
	assert.True(t, strings.HasSuffix(out, `};bar()`))

	// The patched literal still evaluates and carries both original and
	// injected keys.
	r, ok := LocateLiteral(out, "options=")
	require.True(t, ok)
	vm := goja.New()
	v, err := vm.RunString("(" + out[r.Start:r.End] + ")")
	require.NoError(t, err)
	obj := v.ToObject(vm)
	assert.Equal(t, "x", obj.Get("apiUrl").String())
	assert.Equal(t, "h", obj.Get("host").String())
	assert.Equal(t, int64(21025), obj.Get("port").ToInteger())
}

func TestPatchEmptyLiteral(t *testing.T) {
	// No sentinel key, so nothing is eligible.
	out := Patch("options={}", "options=", "apiUrl", []Field{{Name: "host", Value: `"h"`}})
	assert.Equal(t, "options={}", out)
}

func TestPatchSkipsLiteralWithoutSentinel(t *testing.T) {
	text := `options={decoy:1};options={"apiUrl":"x"}`

	out := Patch(text, "options=", "apiUrl", []Field{{Name: "official", Value: "true"}})

	assert.Contains(t, out, `options={decoy:1}`)
	assert.Contains(t, out, `"apiUrl":"x",official:true}`)
}

func TestPatchUnbalancedReturnsInputUnchanged(t *testing.T) {
	text := `options={"apiUrl":"x"`
	assert.Equal(t, text, Patch(text, "options=", "apiUrl", []Field{{Name: "host", Value: `"h"`}}))
}

func TestPatchRejectsNonEvaluatingLiteral(t *testing.T) {
	// someVar is not defined in the sandbox, so the literal does not
	// evaluate and must be left alone.
	text := `options={apiUrl:someVar}`
	assert.Equal(t, text, Patch(text, "options=", "apiUrl", []Field{{Name: "host", Value: `"h"`}}))
}

func TestSpliceTrailingComma(t *testing.T) {
	text := `options={a:1,}`
	r, ok := LocateLiteral(text, "options=")
	require.True(t, ok)

	out := Splice(text, r, []Field{{Name: "b", Value: "2"}})
	assert.Equal(t, `options={a:1,b:2}`, out)
}
