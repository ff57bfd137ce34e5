package view

import (
	"bytes"
	"html/template"

	"github.com/sifan077/TrackDesk/internal/app/theme"
)

// FallbackData feeds the page shown in place of a failed render.
type FallbackData struct {
	IncidentID string
	RetryURL   string
	ReloadURL  string
	Theme      theme.Mode
}

var fallbackTmpl = template.Must(template.New("fallback").Parse(`
<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Something went wrong</title>
	<style>
		:root { --bg: #fafafa; --text: #1f2933; --error: #d32f2f; --paper: #fdecea; font-family: "Roboto", sans-serif; }
		[data-theme="dark"] { --bg: #121212; --text: #f5f7fa; --error: #f44336; --paper: #3b1f1f; }
		body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; background: var(--bg); color: var(--text); }
		.panel { max-width: 600px; width: 92vw; padding: 32px; text-align: center; background: var(--paper); border-radius: 8px; }
		.icon { font-size: 64px; color: var(--error); }
		.caption { display: block; margin-bottom: 16px; font-size: 0.8rem; opacity: 0.8; }
		.actions { display: flex; gap: 16px; justify-content: center; }
		.actions a, .actions button { padding: 10px 20px; border-radius: 4px; font-weight: 600; cursor: pointer; font-size: 0.95rem; text-decoration: none; }
		.actions a { background: var(--error); color: #fff; }
		.actions button { background: none; border: 1px solid var(--error); color: var(--error); }
	</style>
</head>
<body>
	<div class="panel" role="alert">
		<div class="icon">⚠</div>
		<h1>¡Ups! Something went wrong.</h1>
		<p>An unexpected error has occurred. Please try to reload the page again.</p>
		{{if .IncidentID}}<span class="caption">Error ID: {{.IncidentID}}</span>{{end}}
		<div class="actions">
			<a href="{{.RetryURL}}">Try Again</a>
			<form method="post" action="{{.ReloadURL}}">
				<button type="submit">Reload Page</button>
			</form>
		</div>
	</div>
</body>
</html>
`))

// RenderFallback never fails: a broken fallback template would leave the
// visitor with nothing, so it degrades to plain text.
func RenderFallback(data FallbackData) string {
	if data.RetryURL == "" {
		data.RetryURL = "/"
	}
	if data.ReloadURL == "" {
		data.ReloadURL = "/reload"
	}
	var buf bytes.Buffer
	if err := fallbackTmpl.Execute(&buf, data); err != nil {
		return "Something went wrong. Error ID: " + template.HTMLEscapeString(data.IncidentID)
	}
	return buf.String()
}
