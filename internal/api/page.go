package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"game-stock-advisor/console/internal/view"
)

type indexPageData struct {
	Years       []int
	Snapshot    view.Snapshot
	SummaryHTML template.HTML
	CardsHTML   template.HTML
}

var indexPageTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Game Stock Advisor</title>
    <style>
      body { font-family: ui-sans-serif, system-ui, sans-serif; margin: 0; background: #f8fafc; color: #0f172a; }
      main { max-width: 1100px; margin: 0 auto; padding: 24px; }
      .panel { background: #fff; border-radius: 12px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 14px rgba(15,23,42,0.08); }
      .hidden { display: none !important; }
      .error { background: #fee2e2; color: #b91c1c; padding: 12px; border-radius: 8px; margin-bottom: 16px; }
      .loading { color: #2563eb; margin-bottom: 16px; }
      .games-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; }
      .game-card { background: #fff; border-radius: 12px; padding: 16px; position: relative; box-shadow: 0 2px 8px rgba(15,23,42,0.08); }
      .game-rank { position: absolute; top: 12px; right: 12px; font-weight: 700; color: #2563eb; }
      .game-name { font-weight: 700; margin-bottom: 8px; }
      .sales-value { font-size: 1.6em; font-weight: 700; color: #10b981; }
      .regional-breakdown { display: grid; grid-template-columns: repeat(4, 1fr); gap: 6px; margin-top: 10px; text-align: center; }
      .results-message { color: #10b981; font-weight: 600; margin-top: 8px; }
    </style>
  </head>
  <body>
    <main>
      <h1>🎮 Game Stock Advisor</h1>

      <section class="panel">
        <form id="trainForm" action="/ui/train" method="post">
          <button id="trainBtn" type="submit"{{if .Snapshot.TrainButton.Disabled}} disabled{{end}}>{{.Snapshot.TrainButton.Label}}</button>
          <span id="trainStatus" style="color: {{.Snapshot.TrainStatus.Color}}">{{.Snapshot.TrainStatus.Text}}</span>
        </form>
      </section>

      <section class="panel">
        <form id="predictForm" action="/ui/predict" method="post">
          <label>Year <input id="yearInput" name="year" type="number" list="yearOptions" /></label>
          <datalist id="yearOptions">{{range .Years}}<option value="{{.}}"></option>{{end}}</datalist>
          <label>Games to stock <input id="maxGames" name="max_games" type="number" min="1" value="6" /></label>
          <button type="submit">🔮 Get Predictions</button>
        </form>
      </section>

      <div id="loadingIndicator" class="loading{{if not .Snapshot.Loading}} hidden{{end}}">Analyzing sales data...</div>
      <div id="errorMessage" class="error{{if not .Snapshot.Error.Visible}} hidden{{end}}">{{.Snapshot.Error.Message}}</div>

      <section id="resultsSection" class="panel{{if not .Snapshot.Results.Visible}} hidden{{end}}">
        <div id="resultsSummary">{{.SummaryHTML}}</div>
        <div id="gamesGrid" class="games-grid">{{.CardsHTML}}</div>
      </section>
    </main>
    <script>
      (function () {
        let version = {{.Snapshot.Version}};
        const $ = (id) => document.getElementById(id);
        const toggle = (el, show) => el.classList.toggle('hidden', !show);

        function apply(s) {
          if (!s || s.version < version) return;
          version = s.version;
          $('trainBtn').textContent = s.train_button.label;
          $('trainBtn').disabled = s.train_button.disabled;
          $('trainStatus').textContent = s.train_status.text;
          $('trainStatus').style.color = s.train_status.color || '';
          toggle($('loadingIndicator'), s.loading);
          $('errorMessage').textContent = s.error.message;
          toggle($('errorMessage'), s.error.visible);
          const r = s.results;
          toggle($('resultsSection'), r.visible);
          if (r.visible) {
            $('resultsSummary').innerHTML = r.summary_html;
            $('gamesGrid').innerHTML = r.cards_html;
          }
        }

        function reveal(s) {
          if (!s || !s.results.visible) return;
          setTimeout(() => $('resultsSection').scrollIntoView({ behavior: 'smooth' }), s.results.scroll_delay_ms);
        }

        async function submit(form) {
          try {
            const resp = await fetch(form.action, { method: 'POST', body: new URLSearchParams(new FormData(form)) });
            const s = await resp.json();
            if (!s || !s.train_button) {
              $('errorMessage').textContent = (s && s.error) || 'Request failed with status ' + resp.status;
              toggle($('errorMessage'), true);
              return null;
            }
            s.ok = resp.ok;
            return s;
          } catch (err) {
            $('errorMessage').textContent = 'An error occurred: ' + err.message;
            toggle($('errorMessage'), true);
            return null;
          }
        }

        $('trainForm').addEventListener('submit', async (e) => {
          e.preventDefault();
          apply(await submit(e.target));
        });

        $('predictForm').addEventListener('submit', async (e) => {
          e.preventDefault();
          const s = await submit(e.target);
          apply(s);
          if (s && s.ok) reveal(s);
        });

        const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(proto + location.host + '/ui/stream');
        ws.onmessage = (msg) => apply(JSON.parse(msg.data).snapshot);
      })();
    </script>
  </body>
</html>
`))

// renderIndex writes the console page for a session's current state.
func renderIndex(data indexPageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := indexPageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(c *gin.Context) {
	_, p := s.session(c)
	snap := p.Snapshot()

	var years []int
	if s.years != nil {
		s.years.Refresh(c.Request.Context())
		years = s.years.Years()
	}

	// Results HTML was produced by the renderer, which escapes every
	// backend-supplied string.
	page, err := renderIndex(indexPageData{
		Years:       years,
		Snapshot:    snap,
		SummaryHTML: template.HTML(snap.Results.SummaryHTML),
		CardsHTML:   template.HTML(snap.Results.CardsHTML),
	})
	if err != nil {
		logrus.WithError(err).Warn("render index page")
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
