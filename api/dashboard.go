package api

import (
	"html/template"
	"net/http"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Alphawatch Positions</title>
  <meta http-equiv="refresh" content="15">
  <style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; margin: 20px; }
    h1 { font-size: 20px; margin: 0 0 16px; }
    .meta { color: #666; font-size: 12px; margin-bottom: 16px; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 28px; }
    th, td { border: 1px solid #ddd; padding: 8px; text-align: right; }
    th { background: #f7f7f7; }
    td.sym, th.sym { text-align: left; }
    .neg { color: #b00020; }
    .model { font-size: 16px; margin: 24px 0 8px; }
  </style>
</head>
<body>
  <h1>Alphawatch Positions Monitor</h1>
  <div class="meta">Data time: {{.FetchTime}} | auto refresh every 15s</div>

  {{range .Models}}
    <div class="model">
      <strong><a href="https://nof1.ai/models/{{.ID}}" target="_blank" rel="noopener">{{.ID}}</a></strong>
      &nbsp; Realized: {{printf "%.2f" .RealizedPnL}},
      Unrealized: {{printf "%.2f" .UnrealizedPnL}},
      Total: {{printf "%.2f" .TotalPnL}}
    </div>
    <table>
      <thead>
        <tr>
          <th class="sym">Pair</th><th>Qty</th><th>Lev</th><th>Entry</th>
          <th>Price</th><th>Margin</th><th>U-PnL</th><th>C-PnL</th>
        </tr>
      </thead>
      <tbody>
        {{$positions := .Positions}}
        {{range $.Symbols}}
          {{$p := index $positions .}}
          {{if $p.Quantity}}
            <tr>
              <td class="sym">{{.}}</td>
              <td>{{$p.Quantity}}</td>
              <td>{{if $p.Leverage}}{{$p.Leverage}}{{else}}-{{end}}</td>
              <td>{{printf "%.6g" $p.EntryPrice}}</td>
              <td>{{printf "%.6g" $p.CurrentPrice}}</td>
              <td>{{printf "%.2f" $p.Margin}}</td>
              <td{{if lt $p.UnrealizedPnL 0.0}} class="neg"{{end}}>{{printf "%.2f" $p.UnrealizedPnL}}</td>
              <td{{if lt $p.ClosedPnL 0.0}} class="neg"{{end}}>{{printf "%.2f" $p.ClosedPnL}}</td>
            </tr>
          {{end}}
        {{end}}
      </tbody>
    </table>
  {{end}}
</body>
</html>
`))

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view := buildPositionsView(s.store.LoadLast())
	if view == nil {
		http.Error(w, "No snapshot available yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.logger.WithError(err).Error("Failed to render dashboard")
	}
}
