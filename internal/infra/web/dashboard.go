package web

import (
	"html/template"
	"time"

	"telegram-card-counter/internal/domain/model"
)

type dashboardRow struct {
	ChatID   int64
	Clubs    int
	Diamonds int
	Spades   int
	Hearts   int
	Total    int
}

type dashboardData struct {
	Running     bool
	LastMessage string
	Error       string
	UpdatedAt   string
	StoreError  string
	Chats       []dashboardRow
	Now         string
}

func newDashboardData(st *model.BotStatus, chats []model.ChatCounts, now time.Time) dashboardData {
	d := dashboardData{Now: now.UTC().Format(time.RFC3339)}
	if st != nil {
		d.Running = st.Running
		d.LastMessage = st.LastMessage
		d.Error = st.Error
		if !st.UpdatedAt.IsZero() {
			d.UpdatedAt = st.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC")
		}
	}
	for _, c := range chats {
		d.Chats = append(d.Chats, dashboardRow{
			ChatID:   c.ChatID,
			Clubs:    c.Counts.Get(model.Clubs),
			Diamonds: c.Counts.Get(model.Diamonds),
			Spades:   c.Counts.Get(model.Spades),
			Hearts:   c.Counts.Get(model.Hearts),
			Total:    c.Counts.Total(),
		})
	}
	return d
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html lang="fr">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<meta http-equiv="refresh" content="30" />
<title>Bot de Comptage de Cartes</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:760px;border:1px solid #ddd;border-radius:12px;padding:24px;margin-bottom:16px;}
.ok{color:#057a55} .fail{color:#b00020}
table{border-collapse:collapse;width:100%} td,th{padding:6px 10px;border-bottom:1px solid #eee;text-align:right}
td:first-child,th:first-child{text-align:left}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h1>🃏 Bot de Comptage de Cartes</h1>
  {{if .Running}}<h2 class="ok">✅ En ligne</h2>{{else}}<h2 class="fail">⛔ Arrêté</h2>{{end}}
  <p><b>Dernier message :</b> {{if .LastMessage}}{{.LastMessage}}{{else}}-{{end}}</p>
  {{if .Error}}<p class="fail"><b>Erreur :</b> {{.Error}}</p>{{end}}
  <p class="small">Mis à jour : {{if .UpdatedAt}}{{.UpdatedAt}}{{else}}jamais{{end}}</p>
  {{if .StoreError}}<p class="fail small">Stockage indisponible : {{.StoreError}}</p>{{end}}
</div>
<div class="card">
  <h2>📊 Compteurs par canal</h2>
  {{if .Chats}}
  <table>
    <tr><th>Canal</th><th>♣️</th><th>♦️</th><th>♠️</th><th>❤️</th><th>Total</th></tr>
    {{range .Chats}}<tr><td>{{.ChatID}}</td><td>{{.Clubs}}</td><td>{{.Diamonds}}</td><td>{{.Spades}}</td><td>{{.Hearts}}</td><td>{{.Total}}</td></tr>
    {{end}}
  </table>
  {{else}}<p>Aucun canal pour le moment.</p>{{end}}
</div>
<p class="small">Généré à {{.Now}}</p>
</body>
</html>`))
