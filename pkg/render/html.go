package render

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 18mm; }
  body { font-family: Arial, Helvetica, sans-serif; font-size: 11pt; color: #222; }
  h1 { font-size: 20pt; margin: 0 0 4px; }
  .subtitle { color: #555; margin-bottom: 14px; }
  h2 { font-size: 12pt; text-transform: uppercase; border-bottom: 1px solid #999; margin: 14px 0 6px; }
  p { margin: 0 0 4px; }
</style>
</head>
<body>
{{if .Title}}<h1>{{.Title}}</h1>{{end}}
{{if .Subtitle}}<div class="subtitle">{{.Subtitle}}</div>{{end}}
{{range .Sections}}
<section>
{{if .Heading}}<h2>{{.Heading}}</h2>{{end}}
{{range .Lines}}<p>{{.}}</p>
{{end}}
</section>
{{end}}
</body>
</html>
`))

// HTML renders the document as a printable A4 page.
func HTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
