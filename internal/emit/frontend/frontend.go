// Package frontend implements spec.md §4.7's optional static-HTML frontend:
// one page per rendered route (form for POST/PATCH, list/table/detail for
// GET routes carrying an explicit render block), a shared stylesheet, a
// small typed REST client that attaches the stored bearer token, and
// login/logout pages when the project defines a Bearer/Full auth block.
package frontend

import (
	"fmt"
	"strings"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/semantic"
)

// Emitter lowers a parsed project into a static HTML/JS frontend.
type Emitter struct{}

func (e *Emitter) Name() string      { return "frontend" }
func (e *Emitter) Language() string  { return "html" }
func (e *Emitter) Framework() string { return "vanilla" }

func (e *Emitter) Emit(project *ast.Project, cfg *config.ProjectConfig) ([]emit.GeneratedFile, error) {
	var files []emit.GeneratedFile
	files = append(files, emit.GeneratedFile{Path: "assets/styles.css", Content: []byte(stylesheet)})
	files = append(files, emit.GeneratedFile{Path: "assets/client.js", Content: []byte(clientScript)})

	semantic.WalkRoutes(project, func(chain semantic.Chain, route *ast.Route) {
		kind, ok := renderKindFor(route)
		if !ok {
			return
		}
		fullPath := fullRoutePath(chain, route)
		name := pageName(chain, route)
		var page string
		switch kind {
		case ast.RenderForm:
			page = formPage(chain, route, fullPath, name)
		default:
			page = listLikePage(project, chain, route, kind, fullPath, name)
		}
		files = append(files, emit.GeneratedFile{Path: "pages/" + name + ".html", Content: []byte(page)})
	})

	if block := fullBearerBlock(project, cfg); block != nil {
		files = append(files, emit.GeneratedFile{Path: "pages/login.html", Content: []byte(loginPage(block))})
		if _, ok := block.Options.Get("logoutPath"); ok {
			files = append(files, emit.GeneratedFile{Path: "pages/logout.html", Content: []byte(logoutPage(block))})
		}
	}

	return files, nil
}

func renderKindFor(route *ast.Route) (ast.RenderType, bool) {
	if route.Render != nil {
		return route.Render.Type, true
	}
	if route.Method == ast.POST || route.Method == ast.PATCH {
		return ast.RenderForm, true
	}
	return 0, false
}

func fullBearerBlock(project *ast.Project, cfg *config.ProjectConfig) *ast.AuthBlock {
	if cfg.GenerateBearerAuth != config.BearerAuthFull {
		return nil
	}
	for _, id := range project.AuthBlockOrder {
		if b := project.AuthBlocks[id]; b.Type == ast.Bearer {
			return b
		}
	}
	return nil
}

func pageName(chain semantic.Chain, route *ast.Route) string {
	var b strings.Builder
	for _, r := range chain {
		if r.Path.Name() == "" {
			continue
		}
		b.WriteString(ast.Capitalize(ast.SanitizeIdent(r.Path.Name())))
	}
	b.WriteString(ast.Capitalize(ast.SanitizeIdent(route.Path.Name())))
	name := b.String()
	if name == "" {
		name = "Index"
	}
	return name
}

func fullRoutePath(chain semantic.Chain, route *ast.Route) string {
	full := ""
	for _, r := range chain {
		full = joinPath(full, r.Path.Raw)
	}
	return joinPath(full, route.Path.Raw)
}

func joinPath(a, b string) string {
	a = strings.TrimRight(a, "/")
	b = strings.TrimLeft(b, "/")
	switch {
	case a == "" && b == "":
		return "/"
	case a == "":
		return "/" + b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}

func pageShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <link rel="stylesheet" href="../assets/styles.css">
  <script src="../assets/client.js" defer></script>
</head>
<body>
%s
</body>
</html>
`, title, body)
}

// formPage renders a POST/PATCH route as an HTML form. Nested body schemas
// flatten into grouped <fieldset> blocks, per spec.md §4.7.
func formPage(chain semantic.Chain, route *ast.Route, fullPath, name string) string {
	body := semantic.EffectiveBody(chain, route.Body)

	var fields strings.Builder
	writeFormFields(&fields, body, "")

	markup := fmt.Sprintf(`  <h1>%s</h1>
  <form id="ymir-form" data-method=%q data-path=%q>
%s
    <button type="submit">Submit</button>
  </form>
`, name, route.Method.String(), fullPath, fields.String())

	return pageShell(name, markup)
}

func writeFormFields(sb *strings.Builder, schema *ast.OrderedMap, prefix string) {
	for _, k := range schema.Keys() {
		v, _ := schema.Get(k)
		fieldName := prefix + k
		if v.Kind == ast.KindMap {
			fmt.Fprintf(sb, "    <fieldset data-group=%q>\n      <legend>%s</legend>\n", fieldName, k)
			writeFormFields(sb, v.Map, fieldName+".")
			sb.WriteString("    </fieldset>\n")
			continue
		}
		inputType := "text"
		if s, ok := v.AsString(); ok {
			switch s {
			case "int", "float":
				inputType = "number"
			case "bool", "boolean":
				inputType = "checkbox"
			case "date":
				inputType = "date"
			case "datetime":
				inputType = "datetime-local"
			case "time":
				inputType = "time"
			}
		}
		fmt.Fprintf(sb, "    <label>%s <input type=%q name=%q></label>\n", k, inputType, fieldName)
	}
}

// listLikePage renders a GET route as list/table/detail markup, integrating
// sibling routes named in the render block's `integrate` option as per-row
// action buttons.
func listLikePage(project *ast.Project, chain semantic.Chain, route *ast.Route, kind ast.RenderType, fullPath, name string) string {
	var actions strings.Builder
	if route.Render != nil {
		if v, ok := route.Render.Options.Get("integrate"); ok && v.Kind == ast.KindSequence {
			for _, item := range v.Seq {
				alias, ok := item.AsString()
				if !ok {
					continue
				}
				target, parentPath, found := ast.FindRouteByAlias(&project.Router, alias, "")
				if !found {
					continue
				}
				actionPath := joinPath(parentPath, target.Path.Raw)
				fmt.Fprintf(&actions, "      <button data-action=%q data-method=%q data-path=%q>%s</button>\n",
					alias, target.Method.String(), actionPath, alias)
			}
		}
	}

	tag := "div"
	switch kind {
	case ast.RenderTable:
		tag = "table"
	case ast.RenderDetail:
		tag = "dl"
	}

	body := fmt.Sprintf(`  <h1>%s</h1>
  <%s id="ymir-%s" data-method=%q data-path=%q></%s>
  <div class="ymir-row-actions">
%s  </div>
`, name, tag, kind.String(), route.Method.String(), fullPath, tag, actions.String())

	return pageShell(name, body)
}

func loginPage(block *ast.AuthBlock) string {
	loginPath := "/login"
	if v, ok := block.Options.Get("loginPath"); ok {
		if s, ok := v.AsString(); ok {
			loginPath = s
		}
	}
	body := fmt.Sprintf(`  <h1>Login</h1>
  <form id="ymir-login" data-path=%q>
    <label>Username <input type="text" name="username"></label>
    <label>Password <input type="password" name="password"></label>
    <button type="submit">Log in</button>
  </form>
`, loginPath)
	return pageShell("Login", body)
}

func logoutPage(block *ast.AuthBlock) string {
	logoutPath, _ := block.Options.Get("logoutPath")
	path, _ := logoutPath.AsString()
	body := fmt.Sprintf(`  <h1>Logout</h1>
  <button id="ymir-logout" data-path=%q>Log out</button>
`, path)
	return pageShell("Logout", body)
}

const stylesheet = `/* Code generated by ymir. DO NOT EDIT. */
body { font-family: sans-serif; margin: 2rem; color: #222; }
form label { display: block; margin-bottom: 0.5rem; }
fieldset { margin-bottom: 1rem; }
table { border-collapse: collapse; width: 100%; }
table td, table th { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
.ymir-row-actions button { margin-right: 0.5rem; }
`

const clientScript = `// Code generated by ymir. DO NOT EDIT.
(function () {
  const TOKEN_KEY = "ymir.token";

  function authHeaders() {
    const token = window.localStorage.getItem(TOKEN_KEY);
    return token ? { Authorization: "Bearer " + token } : {};
  }

  async function call(method, path, body) {
    const res = await fetch(path, {
      method: method,
      headers: Object.assign({ "Content-Type": "application/json" }, authHeaders()),
      body: body !== undefined ? JSON.stringify(body) : undefined,
    });
    if (!res.ok) {
      throw new Error("request failed: " + res.status);
    }
    const contentType = res.headers.get("Content-Type") || "";
    return contentType.includes("application/json") ? res.json() : null;
  }

  window.ymirClient = { call: call, TOKEN_KEY: TOKEN_KEY };

  document.addEventListener("submit", function (ev) {
    const form = ev.target;
    if (form.id === "ymir-login") {
      ev.preventDefault();
      const data = Object.fromEntries(new FormData(form).entries());
      call("POST", form.dataset.path, data).then(function (result) {
        if (result && result.token) {
          window.localStorage.setItem(TOKEN_KEY, result.token);
        }
      });
      return;
    }
    if (form.id === "ymir-form") {
      ev.preventDefault();
      const data = Object.fromEntries(new FormData(form).entries());
      call(form.dataset.method, form.dataset.path, data);
    }
  });

  document.addEventListener("click", function (ev) {
    const el = ev.target.closest("[data-action]");
    if (el) {
      call(el.dataset.method, el.dataset.path);
      return;
    }
    if (ev.target.id === "ymir-logout") {
      call("POST", ev.target.dataset.path).finally(function () {
        window.localStorage.removeItem(TOKEN_KEY);
      });
    }
  });
})();
`
