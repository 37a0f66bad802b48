package main

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/links"
	"github.com/sells-group/short-interest/internal/lookup"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/quote"
	"github.com/sells-group/short-interest/internal/resilience"
	"github.com/sells-group/short-interest/internal/store"
)

// defaultTicker pre-fills the dashboard form.
const defaultTicker = "SPY"

// dashboard serves the HTML page and JSON API over one lookup.Service.
type dashboard struct {
	svc    *lookup.Service
	store  store.Store
	period provider.Period
	// breakers, when set, are reported by /health.
	breakers *resilience.HostBreakers
}

// newRouter builds the dashboard routes. corsOrigins applies to /api only.
func newRouter(d *dashboard, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", d.handleHealth)
	r.Get("/", d.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/quote/{ticker}", d.handleQuote)
		r.Get("/history/{ticker}", d.handleHistory)
		r.Get("/links/{ticker}", d.handleLinks)
		r.Get("/lookups", d.handleLookups)
	})
	return r
}

func (d *dashboard) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if states := d.breakers.States(); len(states) > 0 {
		body["sites"] = states
	}
	writeJSON(w, http.StatusOK, body)
}

func (d *dashboard) handleQuote(w http.ResponseWriter, r *http.Request) {
	res, err := d.svc.Lookup(r.Context(), chi.URLParam(r, "ticker"), "")
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *dashboard) handleHistory(w http.ResponseWriter, r *http.Request) {
	period, ok := d.periodParam(w, r)
	if !ok {
		return
	}
	points, err := d.svc.History(r.Context(), chi.URLParam(r, "ticker"), period)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":  period,
		"history": points,
	})
}

func (d *dashboard) handleLinks(w http.ResponseWriter, r *http.Request) {
	ticker, err := lookup.NormalizeTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links.Build(ticker))
}

func (d *dashboard) handleLookups(w http.ResponseWriter, r *http.Request) {
	filter := store.LookupFilter{}
	if t := r.URL.Query().Get("ticker"); t != "" {
		ticker, err := lookup.NormalizeTicker(t)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		filter.Ticker = ticker
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}

	recs, err := d.store.ListLookups(r.Context(), filter)
	if err != nil {
		zap.L().Error("list lookups failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list lookups"})
		return
	}
	if recs == nil {
		recs = []store.LookupRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// periodParam reads ?period=, falling back to the configured default. It
// writes a 400 and returns false when the value is invalid.
func (d *dashboard) periodParam(w http.ResponseWriter, r *http.Request) (provider.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return d.period, true
	}
	p, err := provider.ParsePeriod(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period must be one of 1mo, 3mo, 6mo, 1y"})
		return "", false
	}
	return p, true
}

// pageData feeds indexTemplate.
type pageData struct {
	Ticker  string
	Period  provider.Period
	Periods []provider.Period
	Error   string
	Result  *lookup.Result
}

func (d *dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Ticker:  r.URL.Query().Get("ticker"),
		Period:  d.period,
		Periods: []provider.Period{provider.Period1Month, provider.Period3Months, provider.Period6Months, provider.Period1Year},
	}
	if raw := r.URL.Query().Get("period"); raw != "" {
		if p, err := provider.ParsePeriod(raw); err == nil {
			data.Period = p
		}
	}

	status := http.StatusOK
	if data.Ticker == "" {
		data.Ticker = defaultTicker
	} else {
		res, err := d.svc.Lookup(r.Context(), data.Ticker, data.Period)
		if err != nil {
			status, data.Error = statusAndMessage(err)
		}
		data.Result = res
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, data); err != nil {
		zap.L().Error("render index failed", zap.Error(err))
	}
}

// statusAndMessage maps a lookup error to an HTTP status and the message
// shown to users. Internal causes never reach the response.
func statusAndMessage(err error) (int, string) {
	var ie *lookup.InputError
	if errors.As(err, &ie) {
		return http.StatusBadRequest, ie.Error()
	}
	var le *lookup.LookupError
	if errors.As(err, &le) {
		return http.StatusBadGateway, le.Error()
	}
	return http.StatusInternalServerError, "lookup failed"
}

func writeLookupError(w http.ResponseWriter, err error) {
	status, msg := statusAndMessage(err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write json response failed", zap.Error(err))
	}
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"price": quote.FormatPrice,
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Short Interest{{if .Result}} - {{.Result.Ticker}}{{end}}</title>
</head>
<body>
<h1>Short Interest</h1>
<form method="get" action="/">
  <label>Ticker <input name="ticker" value="{{.Ticker}}" placeholder="e.g. SPY, TSLA, GME"></label>
  <label>History
    <select name="period">
    {{- range .Periods}}
      <option value="{{.}}"{{if eq . $.Period}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </label>
  <button type="submit">Analyze</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{with .Result}}
<h2>{{.Ticker}}{{if .Name}} ({{.Name}}){{end}}</h2>
<table>
  <tr><th>Metric</th><th>Value</th><th>Source</th></tr>
  {{- range .Display.Metrics}}
  <tr><td>{{.Label}}</td><td>{{.Value}}</td><td>{{.Source}}</td></tr>
  {{- end}}
</table>
{{if .UsedFallback}}<p>Fallback data from <a href="{{.ScrapeURL}}">{{.ScrapeSource}}</a>.</p>{{end}}
<h3>Research links</h3>
<ul>
  {{- range .Links}}
  <li><a href="{{.URL}}" rel="noopener noreferrer" target="_blank">{{.Name}}</a></li>
  {{- end}}
</ul>
<h3>Price history</h3>
{{if .Warning}}<p class="warning">{{.Warning}}</p>{{else}}
<table>
  <tr><th>Date</th><th>Close</th></tr>
  {{- range .History}}
  <tr><td>{{date .Date}}</td><td>{{price .Close}}</td></tr>
  {{- end}}
</table>
{{end}}
{{end}}
</body>
</html>
`))
