package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownHighlightsFencedBlocks(t *testing.T) {
	r := New()
	out, err := r.Markdown("Here:\n\n```go\nfunc main() {}\n```\n")
	require.NoError(t, err)

	assert.Contains(t, out.HTML, `data-language="go"`)
	assert.Contains(t, out.HTML, `class="chroma"`)
	require.Len(t, out.CodeBlocks, 1)
	assert.Equal(t, CodeBlock{Language: "go", Code: "func main() {}", Complete: true}, out.CodeBlocks[0])
}

func TestMarkdownToleratesUnclosedFence(t *testing.T) {
	r := New()
	partial := "Start\n\n```python\nprint('hi')\nfor x in"

	out, err := r.Markdown(partial)
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "print(&#39;hi&#39;)")
	assert.NotContains(t, out.HTML, `class="chroma"`)

	require.Len(t, out.CodeBlocks, 1)
	assert.False(t, out.CodeBlocks[0].Complete)
	assert.Equal(t, "print('hi')\nfor x in", out.CodeBlocks[0].Code)
}

func TestMarkdownSanitizes(t *testing.T) {
	r := New()
	out, err := r.Markdown("hello <script>alert(1)</script> **bold**")
	require.NoError(t, err)
	assert.NotContains(t, out.HTML, "<script>")
	assert.Contains(t, out.HTML, "<strong>bold</strong>")
}

func TestExtractCodeBlocksKeepsRawText(t *testing.T) {
	text := strings.Join([]string{
		"intro",
		"```js",
		"const a = '<b>';",
		"",
		"console.log(a);",
		"```",
		"middle",
		"~~~",
		"plain",
		"~~~",
	}, "\n")

	blocks := ExtractCodeBlocks(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, "js", blocks[0].Language)
	assert.Equal(t, "const a = '<b>';\n\nconsole.log(a);", blocks[0].Code)
	assert.Equal(t, "", blocks[1].Language)
	assert.Equal(t, "plain", blocks[1].Code)
	assert.True(t, blocks[1].Complete)
}

func TestWriteCSS(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, New().WriteCSS(&sb))
	assert.Contains(t, sb.String(), ".chroma")
}
