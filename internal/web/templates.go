// ABOUTME: HTML templates and render helpers for the login and admin pages
// ABOUTME: Small inline templates, no embedded assets

package web

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/passage-gateway/internal/credstore"
)

// Template data types
type loginData struct {
	Title string
	Error string
}

type homeData struct {
	Title string
	Name  string
}

type adminData struct {
	Title   string
	Name    string
	Message string
	Error   string
	Codes   []*credstore.Credential
	Timeout time.Duration
}

const loginTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
	<h1>Login</h1>
	{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
	<form method="POST" action="/login">
		<label>Login code: <input type="password" name="login_code" autofocus></label>
		<button type="submit">Log in</button>
	</form>
</body>
</html>`

const homeTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
	<h1>passage-gateway</h1>
	{{if .Name}}<p>Signed in as {{.Name}} &middot; <a href="/admin">Admin</a> &middot;
	<form method="POST" action="/logout" style="display:inline"><button type="submit">Log out</button></form></p>{{end}}
	<form method="POST" action="/">
		<label>URL: <input type="text" name="url" placeholder="https://example.com"></label>
		<button type="submit">Go</button>
	</form>
</body>
</html>`

const adminTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
	<h1>Admin Panel</h1>
	<p>Authenticated as: {{.Name}}</p>
	<nav><a href="/">Back</a>
	<form method="POST" action="/logout" style="display:inline"><button type="submit">Logout</button></form></nav>

	{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
	{{if .Error}}<p class="error">{{.Error}}</p>{{end}}

	<h2>Add New Login Code</h2>
	<form method="POST" action="/admin/add">
		<label>Name: <input type="text" name="code_name"></label>
		<label>Code: <input type="text" name="code_value"></label>
		<label>Admin: <input type="checkbox" name="admin_access" value="1"></label>
		<button type="submit">Add Code</button>
	</form>

	<h2>Existing Login Codes</h2>
	{{if .Codes}}
	<table>
		<tr><th>Name</th><th>Code</th><th>Admin</th><th>Created</th><th></th></tr>
		{{range .Codes}}
		<tr>
			<td>{{.Name}}</td>
			<td><code>{{.Code}}</code></td>
			<td>
				<form method="POST" action="/admin/toggle">
					<input type="hidden" name="code" value="{{.Code}}">
					<button type="submit">{{if .AdminAccess}}yes{{else}}no{{end}}</button>
				</form>
			</td>
			<td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
			<td>
				<form method="POST" action="/admin/delete">
					<input type="hidden" name="code" value="{{.Code}}">
					<button type="submit">Delete</button>
				</form>
			</td>
		</tr>
		{{end}}
	</table>
	{{else}}
	<p>No codes found. Add some codes above.</p>
	{{end}}

	<h2>System Information</h2>
	<ul>
		<li>Total active codes: {{len .Codes}}</li>
		<li>Session timeout: {{.Timeout}}</li>
	</ul>
</body>
</html>`

var (
	loginTmpl = template.Must(template.New("login").Parse(loginTemplate))
	homeTmpl  = template.Must(template.New("home").Parse(homeTemplate))
	adminTmpl = template.Must(template.New("admin").Parse(adminTemplate))
)

// render executes a template, logging rather than surfacing render failures
// since headers are already written by then.
func render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		slog.Default().Error("rendering template", "template", tmpl.Name(), "error", err)
	}
}
