package review

import (
	"embed"
	"html/template"
	"io"

	"github.com/abiosoft/mold"
	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates/*
	templateFS embed.FS

	// layout wraps every page through mold so pages only carry content.
	layout mold.Engine

	// TemplateFuncMap contains custom template functions available globally
	TemplateFuncMap = template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}
)

func init() {
	var err error
	layout, err = mold.New(templateFS,
		mold.WithRoot("templates"),
		mold.WithLayout("layouts/base_layout.html"),
		mold.WithFuncMap(TemplateFuncMap),
	)
	if err != nil {
		panic(err)
	}
}

// TemplateContent is the data every review page renders with. Content is
// markdown and gets converted to HTML inside the page template.
type TemplateContent struct {
	Title   string
	Content string
}

// ExecTemplate renders the standard markdown page through the base layout.
func ExecTemplate(w io.Writer, data TemplateContent) error {
	return layout.Render(w, "pages/page.html", data)
}
