package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/homework/internal/exam"
	appI18n "github.com/pavelanni/homework/internal/i18n"
	"github.com/pavelanni/homework/internal/model"
)

// SharePage shows an assignment's details and the link to hand to students.
// Answer keys are never rendered.
func SharePage(a model.Assignment, link string) templ.Component {
	return inLayout("ShareTitle", shareBody(a.Public(), link))
}

func shareBody(a model.Assignment, link string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<h1>`)
		p.text(a.Title)
		p.raw(`</h1><p class="meta">`)
		p.text(appI18n.T(ctx, "Subject") + ": " + a.Subject + " · " +
			appI18n.T(ctx, "Grade") + " " + strconv.Itoa(a.Grade) + " · " +
			appI18n.T(ctx, "Topic") + ": " + a.Topic + " · " +
			appI18n.Tp(ctx, "QuestionsCount", len(a.Questions)))
		p.raw(`</p><div class="card"><p>`)
		p.text(appI18n.T(ctx, "ShareInstructions"))
		p.raw(`</p><p class="link"><a href="`)
		p.text(string(templ.URL(link)))
		p.raw(`">`)
		p.text(link)
		p.raw(`</a></p></div>`)

		for i, q := range a.Questions {
			p.raw(`<div class="card"><strong>`)
			p.text(appI18n.Td(ctx, "QuestionNumber", map[string]any{"Number": i + 1}))
			p.raw(`</strong><div>`)
			p.render(ctx, content(q.Content))
			p.raw(`</div>`)
			if len(q.Options) > 0 {
				p.raw(`<ol class="options">`)
				for j, opt := range q.Options {
					p.raw(`<li>`)
					p.text(exam.OptionLetter(j) + ". " + opt)
					p.raw(`</li>`)
				}
				p.raw(`</ol>`)
			}
			p.raw(`</div>`)
		}
		return p.err
	})
}
