package site

import (
	"html/template"

	"github.com/leapstack-labs/sqlmark/pkg/highlight"
)

const styles = template.CSS(highlight.HTMLStyles + `body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2328; }
pre.sql { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
.meta { color: #59636e; }
.tag { background: #ddf4ff; border-radius: 1em; padding: 0 .5em; margin-right: .25em; font-size: .85em; }
.errors { color: #d1242f; }
a { color: #0969da; }
`)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · {{.ProjectName}}</title>
<style>{{.Styles}}</style>
</head>
<body>
{{- if .Script}}
<nav><a href="{{.Root}}index.html">{{.ProjectName}}</a></nav>
<h1>{{.Script.Name}}</h1>
<p class="meta">{{.Script.Path}}{{with .Script.Owner}} · owner: {{.}}{{end}}</p>
{{- with .Script.Description}}
<p class="description">{{.}}</p>
{{- end}}
{{- with .Script.Tags}}
<p>{{range .}}<span class="tag">{{.}}</span>{{end}}</p>
{{- end}}
<pre class="sql"><code>{{.Code}}</code></pre>
{{- with .References}}
<section class="refs">
<h2>References</h2>
<ul>
{{- range .}}
<li><a href="{{.Path}}.html">{{.Name}}</a>{{with .Description}} <span class="meta">{{.}}</span>{{end}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- with .ReferencedBy}}
<section class="refs">
<h2>Referenced by</h2>
<ul>
{{- range .}}
<li><a href="{{.Path}}.html">{{.Name}}</a>{{with .Description}} <span class="meta">{{.}}</span>{{end}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- else}}
<h1>{{.ProjectName}}</h1>
{{- range .Groups}}
<section>
<h2>{{if .Folder}}{{.Folder}}{{else}}(root){{end}}</h2>
<ul>
{{- range .Scripts}}
<li><a href="models/{{.Path}}.html">{{.Name}}</a>{{with .Description}} <span class="meta">{{.}}</span>{{end}}</li>
{{- end}}
</ul>
</section>
{{- else}}
<p class="meta">No scripts found.</p>
{{- end}}
{{- with .Errors}}
<section class="errors">
<h2>Skipped files</h2>
<ul>
{{- range .}}
<li>{{.Path}}: {{.Message}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- end}}
{{- if .LiveReload}}
<script>
(function() {
  var es = new EventSource('{{.Root}}__reload{{with .Script}}?page={{.Path}}{{end}}');
  es.onmessage = function(e) {
    if (e.data === 'reload') { window.location.reload(); }
  };
  es.onerror = function() {
    es.close();
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
</script>
{{- end}}
</body>
</html>
`))
