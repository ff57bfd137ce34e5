package view

import (
	"bytes"
	"html/template"

	"github.com/sifan077/TrackDesk/internal/app/theme"
)

const helperText = "Enter a valid ISRC code"

// NavLink is one entry of the top bar.
type NavLink struct {
	Label  string
	Href   string
	Active bool
}

// FormData drives the ISRC form of a page.
type FormData struct {
	Action      string
	ClearAction string
	Code        string
	Error       string
	Busy        bool
	SubmitLabel string
	BusyLabel   string
}

// HelperText is the hint under the input; the error replaces it when set.
func (f FormData) HelperText() string {
	if f.Error != "" {
		return f.Error
	}
	return helperText
}

// PageData provides the dynamic fields required by the page template.
type PageData struct {
	AppTitle   string
	Title      string
	Theme      theme.Mode
	ReturnPath string
	Nav        []NavLink
	Form       FormData
	Card       TrackCard
}

// ThemeIcon is the glyph of the toggle button.
func (d PageData) ThemeIcon() string {
	if d.Theme.Icon() == "light_mode" {
		return "☀"
	}
	return "☾"
}

var pageTmpl = template.Must(template.New("page").Parse(`
<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	{{if .Form.Busy}}<meta http-equiv="refresh" content="2" />{{end}}
	<title>{{.Title}} · {{.AppTitle}}</title>
	<style>
		:root {
			--bg: #fafafa;
			--paper: #ffffff;
			--text: #1f2933;
			--muted: #616e7c;
			--border: rgba(0, 0, 0, 0.12);
			--primary: #1976d2;
			--error: #d32f2f;
			--warning: #ed6c02;
			font-family: "Roboto", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		[data-theme="dark"] {
			--bg: #121212;
			--paper: #1e1e1e;
			--text: #f5f7fa;
			--muted: #a0aec0;
			--border: rgba(255, 255, 255, 0.16);
			--primary: #90caf9;
			--error: #f44336;
			--warning: #ffa726;
		}
		* { box-sizing: border-box; }
		body { margin: 0; background: var(--bg); color: var(--text); }
		header {
			display: flex;
			align-items: center;
			gap: 16px;
			padding: 12px 24px;
			background: var(--primary);
			color: #fff;
		}
		header h1 { flex-grow: 1; font-size: 1.25rem; margin: 0; }
		header a { color: #fff; text-decoration: none; }
		header a.active { text-decoration: underline; }
		header button {
			background: none;
			border: none;
			color: inherit;
			font-size: 1.3rem;
			cursor: pointer;
		}
		main { max-width: 960px; margin: 32px auto; padding: 0 16px; }
		form.lookup { display: flex; gap: 16px; flex-wrap: wrap; align-items: flex-start; }
		.field { flex: 1 1 320px; display: flex; flex-direction: column; gap: 4px; }
		.field input {
			padding: 14px;
			font-size: 1rem;
			border-radius: 4px;
			border: 1px solid var(--border);
			background: var(--paper);
			color: var(--text);
		}
		.field.invalid input { border-color: var(--error); }
		.field small { color: var(--muted); }
		.field.invalid small { color: var(--error); }
		button.primary, button.outlined {
			height: 52px;
			min-width: 140px;
			border-radius: 4px;
			font-weight: 600;
			cursor: pointer;
		}
		button.primary { background: var(--primary); color: #fff; border: none; }
		button.outlined { background: none; color: var(--primary); border: 1px solid var(--primary); }
		button:disabled { opacity: 0.5; cursor: default; }
		.alert { margin-top: 16px; padding: 14px 16px; border-radius: 4px; color: #fff; }
		.alert.error { background: var(--error); }
		.alert.warning { background: var(--warning); }
		.card { margin-top: 24px; background: var(--paper); border: 1px solid var(--border); border-radius: 4px; }
		.card .content { padding: 16px; }
		.card h2 { margin: 0 0 8px; }
		.card .muted { color: var(--muted); }
		.cover img { display: block; width: 100%; height: 500px; object-fit: cover; }
		.cover .skeleton { height: 500px; background: linear-gradient(90deg, var(--border), transparent, var(--border)); }
		.cover .unavailable { padding: 32px; text-align: center; color: var(--muted); }
		.cover[data-image-state="loading"] img,
		.cover[data-image-state="loading"] .unavailable,
		.cover[data-image-state="shown"] .skeleton,
		.cover[data-image-state="shown"] .unavailable,
		.cover[data-image-state="failed"] img,
		.cover[data-image-state="failed"] .skeleton { display: none; }
		.chips { display: flex; gap: 8px; margin-top: 8px; }
		.chip { padding: 2px 10px; border-radius: 16px; border: 1px solid var(--primary); font-size: 0.8rem; }
		.chip.explicit { background: var(--error); border-color: var(--error); color: #fff; }
	</style>
</head>
<body>
	<header>
		<h1>{{.AppTitle}}</h1>
		<nav>
			{{range .Nav}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>
			{{end}}
		</nav>
		<form method="post" action="/theme/toggle">
			<input type="hidden" name="return" value="{{.ReturnPath}}" />
			<button type="submit" aria-label="toggle theme" title="{{.Theme.Icon}}">{{.ThemeIcon}}</button>
		</form>
	</header>

	<main>
		<form class="lookup" method="post" action="{{.Form.Action}}">
			<div class="field{{if .Form.Error}} invalid{{end}}">
				<label for="isrc">ISRC</label>
				<input id="isrc" name="isrc" type="text" value="{{.Form.Code}}" required{{if .Form.Busy}} disabled{{end}} />
				<small>{{.Form.HelperText}}</small>
			</div>
			<button class="primary" type="submit"{{if .Form.Busy}} disabled{{end}}>
				{{if .Form.Busy}}{{.Form.BusyLabel}}{{else}}{{.Form.SubmitLabel}}{{end}}
			</button>
			<button class="outlined" type="submit" formaction="{{.Form.ClearAction}}" formnovalidate{{if .Form.Busy}} disabled{{end}}>Clear</button>
		</form>

		{{if .Form.Error}}
		<div class="alert error" role="alert">{{.Form.Error}}</div>
		{{end}}

		{{with .Card}}{{if .Present}}
		{{if .Warning}}
		<div class="alert warning" role="alert">{{.Warning}}</div>
		{{else}}
		<article class="card">
			{{if .CoverURL}}
			<div class="cover" data-image-state="{{.Image}}">
				<img src="{{.CoverURL}}" alt="{{.Title}}" height="500"
					onload="this.parentNode.dataset.imageState='shown'"
					onerror="this.parentNode.dataset.imageState='failed'" />
				<div class="skeleton"></div>
				<div class="unavailable">🖼️ Cover image unavailable</div>
			</div>
			{{end}}
			<div class="content">
				<h2>{{.Title}}</h2>
				<div>{{.Owner}}</div>
				<div class="muted">Album: {{.Album}}</div>
				<div class="chips">
					<span class="chip">Seconds: {{.Seconds}}</span>
					{{if .Explicit}}<span class="chip explicit">Explicit</span>{{end}}
				</div>
				<div class="chips">
					<span class="chip">Duration: {{.Duration}}</span>
				</div>
			</div>
		</article>
		{{end}}
		{{end}}{{end}}
	</main>
</body>
</html>
`))

// RenderPage expands the page template with the provided data.
func RenderPage(data PageData) (string, error) {
	if data.Title == "" {
		data.Title = "Tracks"
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
