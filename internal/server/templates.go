package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/teemow/meetgate/internal/logging"
)

// baseStyles is shared by every rendered page.
const baseStyles = `
  @import url('https://fonts.googleapis.com/css2?family=JetBrains+Mono:wght@400;500;600;700&display=swap');
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: 'JetBrains Mono', monospace;
    min-height: 100vh; background: #fafafa; color: #1a1a1a;
    display: flex; align-items: center; justify-content: center;
  }
  .container { width: 100%; max-width: 480px; padding: 32px; }
  a { color: #1a73e8; text-decoration: none; }
  a:hover { text-decoration: underline; }
`

// proseStyles applies to the long-form informational pages.
const proseStyles = `
  .prose { max-width: 640px; line-height: 1.7; }
  .prose h1 { font-size: 20px; font-weight: 700; margin-bottom: 8px; }
  .prose h2 { font-size: 15px; font-weight: 600; margin-top: 28px; margin-bottom: 8px; border-bottom: 1px solid #e0e0e0; padding-bottom: 6px; }
  .prose h3 { font-size: 13px; font-weight: 600; margin-top: 20px; margin-bottom: 6px; }
  .prose p { font-size: 12px; color: #444; margin-bottom: 12px; }
  .prose ul, .prose ol { font-size: 12px; color: #444; margin-bottom: 12px; padding-left: 20px; }
  .prose li { margin-bottom: 4px; }
  .prose code { font-size: 11px; background: #f0f0f0; padding: 2px 6px; border: 1px solid #e0e0e0; }
  .prose pre { font-size: 11px; background: #f0f0f0; padding: 12px 16px; border: 1px solid #e0e0e0; margin-bottom: 12px; overflow-x: auto; }
  .prose pre code { background: none; border: none; padding: 0; }
  .prose hr { border: none; border-top: 1px solid #e0e0e0; margin: 24px 0; }
  .prose table { font-size: 12px; border-collapse: collapse; width: 100%; margin-bottom: 12px; }
  .prose th, .prose td { border: 1px solid #e0e0e0; padding: 6px 10px; text-align: left; }
  .prose th { background: #f0f0f0; font-weight: 600; }
  .nav { font-size: 11px; margin-bottom: 24px; color: #888; }
  .nav a { color: #888; margin-right: 12px; }
  .nav a:hover { color: #1a73e8; }
  .footer { font-size: 11px; color: #aaa; margin-top: 32px; border-top: 1px solid #e0e0e0; padding-top: 12px; }
  .footer a { color: #888; margin-right: 12px; }
`

const redirectPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>Redirecting to Meet</title>
  <style>` + baseStyles + `
    .spinner {
      width: 32px; height: 32px; margin: 0 auto 20px;
      border: 3px solid #e0e0e0; border-top-color: #1a73e8;
      border-radius: 50%; animation: spin 0.8s linear infinite;
    }
    @keyframes spin { to { transform: rotate(360deg); } }
    p { font-size: 13px; color: #666; }
    .url { margin-top: 12px; font-size: 12px; }
    .copied { margin-top: 8px; font-size: 11px; color: #0d904f; }
  </style>
</head>
<body>
  <div class="container" style="text-align:center">
    <div class="spinner"></div>
    <p>Redirecting to Meet...</p>
    <p class="copied" id="status"></p>
    <p class="url"><a href="{{.URL}}">{{.URL}}</a></p>
  </div>
  <script>
    (async () => {
      const url = {{.URL}};
      try {
        await navigator.clipboard.writeText(url);
        document.getElementById("status").textContent = "link copied to clipboard";
      } catch {
        document.getElementById("status").textContent = "";
      }
      setTimeout(() => { window.location.href = url; }, 600);
    })();
  </script>
</body>
</html>`

const selectionPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>Meet</title>
  <style>` + baseStyles + `
    h1 { font-size: 16px; font-weight: 600; margin-bottom: 4px; }
    .subtitle { font-size: 12px; color: #888; margin-bottom: 24px; }
    .meeting {
      display: flex; align-items: center; justify-content: space-between;
      padding: 14px 16px; border: 1px solid #e0e0e0; background: #fff;
      border-radius: 0; cursor: pointer; margin-bottom: 8px;
      transition: border-color 0.15s, background 0.15s;
    }
    .meeting:hover { border-color: #1a73e8; background: #f0f6ff; }
    .meeting.active { border-color: #1a73e8; background: #e8f0fe; }
    .meeting-info { flex: 1; min-width: 0; }
    .meeting-name { font-size: 13px; font-weight: 600; }
    .meeting-url { font-size: 11px; color: #888; margin-top: 2px; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
    .meeting-badge {
      font-size: 10px; font-weight: 600; color: #1a73e8;
      border: 1px solid #1a73e8; padding: 2px 8px;
      margin-left: 12px; white-space: nowrap;
    }
    .countdown {
      font-size: 11px; color: #888; text-align: center;
      margin-top: 16px; min-height: 16px;
    }
    .actions { margin-top: 16px; display: flex; gap: 8px; }
    .btn {
      flex: 1; padding: 10px 16px; font-size: 12px;
      font-family: 'JetBrains Mono', monospace; font-weight: 500;
      border: 1px solid #e0e0e0; background: #fff; color: #1a1a1a;
      border-radius: 0; cursor: pointer;
      transition: border-color 0.15s, background 0.15s;
    }
    .btn:hover { border-color: #1a73e8; background: #f0f6ff; }
    .btn-primary { background: #1a73e8; color: #fff; border-color: #1a73e8; }
    .btn-primary:hover { background: #1557b0; }
    .copied-toast {
      position: fixed; bottom: 24px; left: 50%; transform: translateX(-50%);
      background: #1a1a1a; color: #fff; padding: 8px 20px;
      font-size: 11px; font-family: 'JetBrains Mono', monospace;
      opacity: 0; transition: opacity 0.2s; pointer-events: none;
    }
    .copied-toast.show { opacity: 1; }
    .footer { margin-top: 24px; font-size: 11px; color: #aaa; text-align: center; }
    .footer a { color: #888; }
    .direct-link {
      margin-top: 16px; padding: 10px 14px; background: #f8f8f8;
      border: 1px solid #e0e0e0; font-size: 11px; text-align: center;
    }
    .direct-link code {
      display: inline-block; padding: 2px 6px; background: #fff;
      border: 1px solid #e0e0e0; cursor: pointer; user-select: all;
    }
  </style>
</head>
<body>
  <div class="container">
    <h1>meet</h1>
    <p class="subtitle">{{if .SignedIn}}signed in as {{.Email}}{{else}}not signed in{{end}}</p>

    <div id="meetings"></div>

    <p class="countdown" id="countdown"></p>

    <div class="actions">
      {{if .SignedIn}}<a href="/new" class="btn">new meeting</a>
      <a href="/logout" class="btn">logout</a>{{else}}<a href="/new" class="btn">create new</a>
      <a href="/login" class="btn btn-primary">sign in</a>{{end}}
    </div>

    {{if .ShareAlias}}<div class="direct-link">
      your direct link: <code id="directLink" onclick="copyDirectLink()">/?owner={{.ShareAlias}}</code>
    </div>{{end}}

    <div class="footer">
      {{if not .SignedIn}}<a href="/login">sign in</a> to create your own daily meeting{{end}}
    </div>
  </div>

  <div class="copied-toast" id="toast">link copied to clipboard</div>

  <script>
    const meetings = {{.Meetings}};
    const autoRedirectUrl = {{if .AutoRedirectURL}}{{.AutoRedirectURL}}{{else}}null{{end}};
    const shouldAutoRedirect = {{.ShouldAutoRedirect}};

    let timer = null;
    let countdown = 2;
    let selectedUrl = autoRedirectUrl;

    const container = document.getElementById("meetings");
    const countdownEl = document.getElementById("countdown");
    const toast = document.getElementById("toast");

    function showToast(msg) {
      toast.textContent = msg || "link copied to clipboard";
      toast.classList.add("show");
      setTimeout(() => toast.classList.remove("show"), 1500);
    }

    function copyDirectLink() {
      const el = document.getElementById("directLink");
      if (!el) return;
      const link = window.location.origin + el.textContent;
      navigator.clipboard.writeText(link).then(() => showToast("direct link copied")).catch(() => {});
    }

    function render() {
      container.innerHTML = "";
      meetings.forEach(m => {
        const div = document.createElement("div");
        div.className = "meeting" + (selectedUrl === m.url ? " active" : "");

        const info = document.createElement("div");
        info.className = "meeting-info";

        const nameEl = document.createElement("div");
        nameEl.className = "meeting-name";
        nameEl.textContent = m.name;
        info.appendChild(nameEl);

        const urlEl = document.createElement("div");
        urlEl.className = "meeting-url";
        urlEl.textContent = m.url;
        info.appendChild(urlEl);

        div.appendChild(info);

        if (m.isCurrentUser) {
          const badge = document.createElement("span");
          badge.className = "meeting-badge";
          badge.textContent = "you";
          div.appendChild(badge);
        }

        div.addEventListener("click", () => selectMeeting(m.url));
        container.appendChild(div);
      });
    }

    function selectMeeting(url) {
      if (timer) { clearInterval(timer); timer = null; }
      selectedUrl = url;
      render();

      navigator.clipboard.writeText(url).then(() => showToast()).catch(() => {});
      setTimeout(() => { window.location.href = url; }, 500);
    }

    function startAutoRedirect() {
      if (!shouldAutoRedirect) return;
      countdown = 2;
      countdownEl.textContent = "redirecting in " + countdown + "s...";
      timer = setInterval(() => {
        countdown--;
        if (countdown <= 0) {
          clearInterval(timer);
          timer = null;
          navigator.clipboard.writeText(selectedUrl).then(() => {}).catch(() => {});
          window.location.href = selectedUrl;
        } else {
          countdownEl.textContent = "redirecting in " + countdown + "s...";
        }
      }, 1000);
    }

    render();
    startAutoRedirect();
  </script>
</body>
</html>`

const errorPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>` + baseStyles + `
    h1 { font-size: 16px; font-weight: 600; margin-bottom: 12px; color: #d93025; }
    p { font-size: 13px; color: #666; line-height: 1.6; }
  </style>
</head>
<body>
  <div class="container" style="text-align:center">
    <h1>{{.Title}}</h1>
    <p>{{.Message}}</p>
    {{if .LoginURL}}<p style="margin-top:16px"><a href="{{.LoginURL}}">sign in with google</a></p>{{end}}
  </div>
</body>
</html>`

const mePageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>me - meet</title>
  <style>` + baseStyles + `
    h1 { font-size: 16px; font-weight: 600; margin-bottom: 4px; }
    .subtitle { font-size: 12px; color: #888; margin-bottom: 24px; }
    .section { margin-bottom: 20px; }
    .label { font-size: 11px; color: #888; margin-bottom: 4px; }
    .value { font-size: 13px; font-weight: 500; }
    .direct-link {
      padding: 12px 16px; background: #f8f8f8;
      border: 1px solid #e0e0e0; margin-top: 4px;
    }
    .direct-link code {
      display: block; font-size: 12px; padding: 4px 0;
      word-break: break-all; cursor: pointer; user-select: all;
    }
    .copy-btn {
      margin-top: 8px; padding: 6px 14px; font-size: 11px;
      font-family: 'JetBrains Mono', monospace; font-weight: 500;
      border: 1px solid #e0e0e0; background: #fff; color: #1a1a1a;
      cursor: pointer; transition: border-color 0.15s, background 0.15s;
    }
    .copy-btn:hover { border-color: #1a73e8; background: #f0f6ff; }
    .actions { margin-top: 24px; display: flex; gap: 8px; }
    .btn {
      flex: 1; padding: 10px 16px; font-size: 12px;
      font-family: 'JetBrains Mono', monospace; font-weight: 500;
      border: 1px solid #e0e0e0; background: #fff; color: #1a1a1a;
      text-align: center; transition: border-color 0.15s, background 0.15s;
    }
    .btn:hover { border-color: #1a73e8; background: #f0f6ff; }
    .btn-danger:hover { border-color: #d93025; background: #fce8e6; }
    .toast {
      position: fixed; bottom: 24px; left: 50%; transform: translateX(-50%);
      background: #1a1a1a; color: #fff; padding: 8px 20px;
      font-size: 11px; font-family: 'JetBrains Mono', monospace;
      opacity: 0; transition: opacity 0.2s; pointer-events: none;
    }
    .toast.show { opacity: 1; }
  </style>
</head>
<body>
  <div class="container">
    <h1>me</h1>
    <p class="subtitle">your account</p>

    <div class="section">
      <div class="label">name</div>
      <div class="value">{{.Name}}</div>
    </div>

    <div class="section">
      <div class="label">email</div>
      <div class="value">{{.Email}}</div>
    </div>

    <div class="section">
      <div class="label">your direct link</div>
      <div class="direct-link">
        <code id="directLink">/?owner={{.Alias}}</code>
        <button class="copy-btn" onclick="copyLink()">copy full link</button>
      </div>
    </div>

    <div class="actions">
      <a href="/" class="btn">back to app</a>
      <a href="/logout" class="btn btn-danger">logout</a>
    </div>
  </div>

  <div class="toast" id="toast">link copied to clipboard</div>

  <script>
    function copyLink() {
      var el = document.getElementById("directLink");
      var link = window.location.origin + el.textContent;
      navigator.clipboard.writeText(link).then(function() {
        var toast = document.getElementById("toast");
        toast.classList.add("show");
        setTimeout(function() { toast.classList.remove("show"); }, 1500);
      }).catch(function() {});
    }
  </script>
</body>
</html>`

const layoutPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Title}} - meet</title>
  <style>` + baseStyles + proseStyles + `
    body { align-items: flex-start; padding: 48px 24px; }
    .container { max-width: 640px; }
  </style>
</head>
<body>
  <div class="container">
    <nav class="nav">
      <a href="/home">home</a>
      <a href="/">app</a>
      <a href="/tnc">terms</a>
      <a href="/privacy-policy">privacy</a>
    </nav>
    <div class="prose">
      {{.Content}}
    </div>
    <div class="footer">
      <a href="/home">home</a>
      <a href="/tnc">terms</a>
      <a href="/privacy-policy">privacy</a>
    </div>
  </div>
</body>
</html>`

var (
	redirectTmpl  = template.Must(template.New("redirect").Parse(redirectPageHTML))
	selectionTmpl = template.Must(template.New("selection").Parse(selectionPageHTML))
	errorTmpl     = template.Must(template.New("error").Parse(errorPageHTML))
	meTmpl        = template.Must(template.New("me").Parse(mePageHTML))
	layoutTmpl    = template.Must(template.New("layout").Parse(layoutPageHTML))
)

type redirectData struct {
	URL string
}

// clientMeeting is the browser-visible projection of a cached meeting.
// Owner emails never leave the server.
type clientMeeting struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

type selectionData struct {
	SignedIn           bool
	Email              string
	Meetings           []clientMeeting
	AutoRedirectURL    string
	ShouldAutoRedirect bool
	ShareAlias         string
}

type errorData struct {
	Title    string
	Message  string
	LoginURL string
}

type meData struct {
	Name  string
	Email string
	Alias string
}

type layoutData struct {
	Title   string
	Content template.HTML
}

func (s *Server) renderHTML(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render page",
			slog.String("template", tmpl.Name()), logging.Err(err))
	}
}

func (s *Server) renderRedirect(w http.ResponseWriter, meetURL string) {
	s.renderHTML(w, http.StatusOK, redirectTmpl, redirectData{URL: meetURL})
}

func (s *Server) renderError(w http.ResponseWriter, status int, title, message, loginURL string) {
	s.renderHTML(w, status, errorTmpl, errorData{
		Title:    title,
		Message:  message,
		LoginURL: loginURL,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, title string, content template.HTML) {
	s.renderHTML(w, http.StatusOK, layoutTmpl, layoutData{Title: title, Content: content})
}
