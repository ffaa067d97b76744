package site

import (
	"strings"
	"text/template"
)

// pageStyle is the stylesheet embedded into every generated page.
const pageStyle = `
body {
  font-family: "Courier New";
  background-color: #ffffff;
}

/* top navigation bar */
.navbar {
    font-weight: bold;
    padding: 8px 12px;
    border-bottom: 1px solid #ccc;
    margin-bottom: 15px;
}

/* link styling */
a {
    color: #000;
    text-decoration: none;
}

a:hover {
    text-decoration: underline;
}
`

// pageSkeleton is the single fixed page layout, parsed once. text/template,
// not html/template: the navbar and body are trusted pre-rendered fragments
// that must not be escaped again.
var pageSkeleton = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>{{.Style}}</style>
</head>
<body>
    {{.Navbar}}
    <div class="content-container">
        {{.Body}}
    </div>
</body>
</html>`))

type pageData struct {
	Title  string
	Style  string
	Navbar string
	Body   string
}

// renderPage assembles a complete HTML document. The title must arrive
// escaped; the navbar and body are embedded verbatim.
func renderPage(escapedTitle, navbar, body string) string {
	var sb strings.Builder
	// The fixed skeleton cannot fail against a strings.Builder.
	_ = pageSkeleton.Execute(&sb, pageData{Title: escapedTitle, Style: pageStyle, Navbar: navbar, Body: body})
	return sb.String()
}
