// Package views renders the share and result pages as templ components.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/homework/internal/i18n"
)

const style = `<style>
body{font-family:system-ui,sans-serif;max-width:52rem;margin:2rem auto;padding:0 1rem;color:#1f2933;line-height:1.5}
h1{font-size:1.6rem;margin-bottom:.25rem}
.meta{color:#52606d;margin:0 0 1.5rem}
.card{border:1px solid #d9e2ec;border-radius:8px;padding:1rem 1.25rem;margin:1rem 0}
.ok{border-left:4px solid #2f9e44}.bad{border-left:4px solid #e03131}
.score{font-size:1.4rem;font-weight:600}
.link{font-family:monospace;background:#f0f4f8;padding:.5rem;border-radius:4px;word-break:break-all}
ol.options{list-style:none;padding-left:0}
svg{max-width:100%;height:auto}
</style>`

// printer writes markup and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

// text writes s HTML-escaped.
func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *printer) render(ctx context.Context, c templ.Component) {
	if p.err == nil {
		p.err = c.Render(ctx, p.w)
	}
}

// layout is the document shell; the page body is passed as children.
func layout(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="`)
		p.text(appI18n.T(ctx, "LangCode"))
		p.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		p.text(title + " · " + appI18n.T(ctx, "AppTitle"))
		p.raw(`</title>`)
		p.raw(style)
		p.raw(`</head><body>`)
		p.render(ctx, children)
		p.raw(`</body></html>`)
		return p.err
	})
}

// inLayout renders body inside the layout under the localised title.
func inLayout(titleID string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(appI18n.T(ctx, titleID)).Render(templ.WithChildren(ctx, body), w)
	})
}

// content renders question markup. It was sanitised when the assignment was
// generated.
func content(html string) templ.Component {
	return templ.Raw(html)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
