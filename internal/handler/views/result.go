package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/homework/internal/i18n"
	"github.com/pavelanni/homework/internal/model"
)

// ResultLinks are the download links shown under a result.
type ResultLinks struct {
	CSV  string
	JSON string
}

// ResultPage shows a graded submission question by question.
func ResultPage(exp model.ResultExport, links ResultLinks) templ.Component {
	return inLayout("ResultTitle", resultBody(exp, links))
}

func resultBody(exp model.ResultExport, links ResultLinks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<h1>`)
		p.text(exp.Title)
		p.raw(`</h1><p class="meta">`)
		p.text(appI18n.T(ctx, "Student") + ": " + exp.ExamineeName + " · " +
			appI18n.T(ctx, "Class") + ": " + exp.ExamineeClass + " · " +
			appI18n.T(ctx, "SubmittedAt") + ": " + exp.SubmittedAt.Format("02/01/2006 15:04"))
		p.raw(`</p><p class="score">`)
		p.text(appI18n.Td(ctx, "ScoreOf", map[string]any{
			"Score": formatScore(exp.Score),
			"Total": formatScore(exp.TotalScore),
		}))
		p.raw(`</p>`)
		if exp.Comment != "" {
			p.raw(`<div class="card"><strong>`)
			p.text(appI18n.T(ctx, "OverallComment"))
			p.raw(`</strong><p>`)
			p.text(exp.Comment)
			p.raw(`</p></div>`)
		}
		for _, q := range exp.Questions {
			p.render(ctx, questionResult(q))
		}
		p.raw(`<p><a href="`)
		p.text(string(templ.URL(links.CSV)))
		p.raw(`">`)
		p.text(appI18n.T(ctx, "DownloadCSV"))
		p.raw(`</a> · <a href="`)
		p.text(string(templ.URL(links.JSON)))
		p.raw(`">`)
		p.text(appI18n.T(ctx, "DownloadJSON"))
		p.raw(`</a></p>`)
		return p.err
	})
}

func questionResult(q model.QuestionResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		class := "card"
		if q.Correct != nil {
			if *q.Correct {
				class += " ok"
			} else {
				class += " bad"
			}
		}
		p.raw(`<div class="` + class + `"><strong>`)
		p.text(appI18n.Td(ctx, "QuestionNumber", map[string]any{"Number": q.Number}))
		p.raw(`</strong> · `)
		p.text(appI18n.Td(ctx, "PointsOf", map[string]any{"Points": formatScore(q.Score)}))
		p.raw(`<div>`)
		p.render(ctx, content(q.Content))
		p.raw(`</div><p>`)
		p.text(appI18n.T(ctx, "YourAnswer") + ": ")
		if q.Answer != "" {
			p.text(q.AnswerText)
		} else {
			p.raw(`<em>`)
			p.text(appI18n.T(ctx, "NoAnswer"))
			p.raw(`</em>`)
		}
		if q.Correct != nil {
			verdict := appI18n.T(ctx, "Incorrect")
			if *q.Correct {
				verdict = appI18n.T(ctx, "Correct")
			}
			p.text(" (" + verdict + ")")
		}
		p.raw(`</p>`)
		if q.CorrectAnswer != "" {
			p.raw(`<p>`)
			p.text(appI18n.T(ctx, "CorrectAnswer") + ": " + q.CorrectAnswer)
			p.raw(`</p>`)
		}
		p.raw(`<p>`)
		p.text(appI18n.T(ctx, "Feedback") + ": " + q.Feedback)
		p.raw(`</p></div>`)
		return p.err
	})
}
