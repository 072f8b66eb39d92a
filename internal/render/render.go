// Package render turns prediction responses into the HTML fragments the
// console page displays, and into plain text for the CLI.
package render

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"game-stock-advisor/console/internal/advisor"
)

// DefaultScrollDelay lets the page lay out the cards before scrolling to them.
const DefaultScrollDelay = 300 * time.Millisecond

// Fragment is the rendered results panel. Cards keep the order of the
// response's games.
type Fragment struct {
	SummaryHTML string
	Cards       []string
	ScrollDelay time.Duration
}

// CardsHTML joins the cards into the content of the results grid.
func (f Fragment) CardsHTML() string {
	var buf bytes.Buffer
	for _, card := range f.Cards {
		buf.WriteString(card)
	}
	return buf.String()
}

// Renderer renders prediction responses. Text templates are used with
// explicit escaping so every interpolated string goes through EscapeHTML
// exactly once.
type Renderer struct {
	summary     *template.Template
	card        *template.Template
	scrollDelay time.Duration
}

var funcs = template.FuncMap{
	"escape": EscapeHTML,
	"sales":  Sales,
}

const summaryTemplate = `<p>📅 <strong>Year:</strong> {{.Year}} | ` +
	`📊 <strong>Total Games Analyzed:</strong> {{.TotalGames}} | ` +
	`📦 <strong>Stocks Requested:</strong> {{.RequestedStock}} | ` +
	`⭐ <strong>Top Recommendations:</strong> {{len .Games}}</p>` +
	`<p class="results-message">✅ {{escape .Message}}</p>`

const cardTemplate = `<div class="game-card">` +
	`<div class="game-rank">#{{.Rank}}</div>` +
	`<div class="game-name">{{escape .Name}}</div>` +
	`<div class="game-details">` +
	`<div class="game-detail"><span class="game-detail-label">Platform:</span><span class="game-platform">{{escape .Platform}}</span></div>` +
	`<div class="game-detail"><span class="game-detail-label">Genre:</span><span class="game-genre">{{escape .Genre}}</span></div>` +
	`<div class="game-detail"><span class="game-detail-label">Publisher:</span><span class="game-detail-value">{{escape .Publisher}}</span></div>` +
	`</div>` +
	`<div class="game-sales"><div class="sales-label">Predicted Global Sales</div><div class="sales-value">{{sales .PredictedSales}}</div></div>` +
	`<div class="regional-breakdown">` +
	`<div class="regional-item"><div class="regional-label">NA</div><div class="regional-value">{{sales .NASales}}</div></div>` +
	`<div class="regional-item"><div class="regional-label">EU</div><div class="regional-value">{{sales .EUSales}}</div></div>` +
	`<div class="regional-item"><div class="regional-label">JP</div><div class="regional-value">{{sales .JPSales}}</div></div>` +
	`<div class="regional-item"><div class="regional-label">Other</div><div class="regional-value">{{sales .OtherSales}}</div></div>` +
	`</div>` +
	`</div>`

// NewRenderer builds a Renderer. A non-positive scrollDelay uses DefaultScrollDelay.
func NewRenderer(scrollDelay time.Duration) *Renderer {
	if scrollDelay <= 0 {
		scrollDelay = DefaultScrollDelay
	}
	return &Renderer{
		summary:     template.Must(template.New("summary").Funcs(funcs).Parse(summaryTemplate)),
		card:        template.Must(template.New("card").Funcs(funcs).Parse(cardTemplate)),
		scrollDelay: scrollDelay,
	}
}

// Render produces the summary block and one card per game.
func (r *Renderer) Render(resp advisor.PredictionResponse) (Fragment, error) {
	var summary bytes.Buffer
	if err := r.summary.Execute(&summary, resp); err != nil {
		return Fragment{}, fmt.Errorf("render summary: %w", err)
	}

	cards := make([]string, 0, len(resp.Games))
	for _, game := range resp.Games {
		card, err := r.Card(game)
		if err != nil {
			return Fragment{}, err
		}
		cards = append(cards, card)
	}

	return Fragment{
		SummaryHTML: summary.String(),
		Cards:       cards,
		ScrollDelay: r.scrollDelay,
	}, nil
}

// Card renders a single game card.
func (r *Renderer) Card(game advisor.GameResult) (string, error) {
	var buf bytes.Buffer
	if err := r.card.Execute(&buf, game); err != nil {
		return "", fmt.Errorf("render card %d: %w", game.Rank, err)
	}
	return buf.String(), nil
}

// SummaryLine is the plain-text summary shared by the page and the CLI.
func SummaryLine(resp advisor.PredictionResponse) string {
	return fmt.Sprintf("Year: %d | Total Games Analyzed: %d | Stocks Requested: %d | Top Recommendations: %d",
		resp.Year, resp.TotalGames, resp.RequestedStock, len(resp.Games))
}
