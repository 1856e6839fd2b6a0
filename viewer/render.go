package viewer

import (
	_ "embed"
	"html/template"
	"io"
)

// Title is the heading displayed on every page.
const Title = "SoleTrym"

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(
	template.New("page").Parse(pageHTML),
)

// Render writes the page as an HTML document.
//
// The snippet text is escaped and its whitespace is preserved.
func Render(w io.Writer, p *Page) error {
	return pageTemplate.Execute(
		w,
		struct {
			Title string
			Text  string
		}{
			Title: Title,
			Text:  p.Text(),
		},
	)
}
