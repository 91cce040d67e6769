// Package render turns assistant Markdown into sanitized, highlighted HTML.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// StyleName is the chroma style used for the stylesheet.
const StyleName = "github"

// Response is a rendered assistant reply.
type Response struct {
	HTML       string      `json:"html"`
	CodeBlocks []CodeBlock `json:"codeBlocks"`
}

// Renderer converts Markdown. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// New builds a renderer with GitHub flavoured Markdown.
func New() *Renderer {
	style := styles.Get(StyleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	r := &Renderer{
		policy:    newPolicy(),
		formatter: formatter,
		style:     style,
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&fencedRenderer{r: r}, 200)),
		),
	)
	return r
}

var classPattern = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classPattern).OnElements("div", "pre", "code", "span")
	p.AllowDataAttributes()
	return p
}

// Markdown renders text. Partial text from an unfinished stream is accepted;
// a fence that is still open renders as escaped plain text.
func (r *Renderer) Markdown(text string) (Response, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return Response{}, fmt.Errorf("render markdown: %w", err)
	}

	blocks := ExtractCodeBlocks(text)
	if blocks == nil {
		blocks = []CodeBlock{}
	}
	return Response{
		HTML:       r.policy.Sanitize(buf.String()),
		CodeBlocks: blocks,
	}, nil
}

// WriteCSS writes the stylesheet for highlighted blocks.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}

func (r *Renderer) highlight(w io.Writer, code, language string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return r.formatter.Format(w, r.style, iterator)
}

type fencedRenderer struct {
	r *Renderer
}

func (f *fencedRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, f.renderFencedCodeBlock)
}

func (f *fencedRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	language := ""
	if lang := n.Language(source); lang != nil {
		language = string(lang)
	}

	var code bytes.Buffer
	lines := n.Lines()
	end := 0
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
		end = seg.Stop
	}
	if end == 0 && n.Info != nil {
		end = n.Info.Segment.Stop
	}

	fmt.Fprintf(w, `<div class="code-block" data-language="%s">`, html.EscapeString(language))
	if closedAfter(source, end) {
		var out bytes.Buffer
		if err := f.r.highlight(&out, code.String(), language); err == nil {
			_, _ = w.Write(out.Bytes())
			_, _ = w.WriteString("</div>\n")
			return ast.WalkSkipChildren, nil
		}
	}

	_, _ = w.WriteString("<pre><code>")
	_, _ = w.WriteString(html.EscapeString(code.String()))
	_, _ = w.WriteString("</code></pre></div>\n")
	return ast.WalkSkipChildren, nil
}

// closedAfter reports whether a closing fence follows offset in source.
func closedAfter(source []byte, offset int) bool {
	if offset > len(source) {
		return false
	}
	for _, line := range bytes.Split(source[offset:], []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		return bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))
	}
	return false
}
