package handlers

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/screepers/screeps-proxy/pkg/serverlist"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
<title>screeps-proxy</title>
<style>
body { font-family: sans-serif; margin: 3em auto; max-width: 32em; color: #ddd; background: #1c1c1c; }
a { color: #89b4fa; text-decoration: none; }
li { margin: 0.5em 0; }
code { color: #999; }
</style>
</head>
<body>
<h1>screeps-proxy</h1>
{{if .}}
<ul>
{{range .}}<li><a href="/({{.URL}})/">{{.Name}}</a> <code>{{.URL}}</code></li>
{{end}}</ul>
{{else}}
<p>No servers configured. Open <code>/(backend-origin)/</code> directly,
for example <code>/(http://localhost:21025)/</code>.</p>
{{end}}
</body>
</html>
`))

// Landing renders the known-servers page served at the root path in
// embedded-address mode.
func Landing(servers []serverlist.Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := landingTemplate.Execute(&buf, servers); err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
}
