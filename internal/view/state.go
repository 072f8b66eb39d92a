package view

import "game-stock-advisor/console/internal/render"

// Train control labels and status colours.
const (
	LabelTrainIdle    = "🚀 Train Model"
	LabelTraining     = "🔄 Training..."
	LabelTrained      = "✅ Model Trained"
	LabelTrainFailed  = "❌ Training Failed"
	LabelTrainErrored = "❌ Error"

	ColorInfo    = "#2563eb"
	ColorSuccess = "#10b981"
	ColorError   = "#ef4444"
)

// TrainOutcome is the terminal state of one training run.
type TrainOutcome int

const (
	TrainSucceeded TrainOutcome = iota
	TrainFailed
	TrainErrored
)

// Button is the train trigger.
type Button struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// StatusLine is the text next to the train trigger.
type StatusLine struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Banner is the shared error banner.
type Banner struct {
	Visible bool   `json:"visible"`
	Message string `json:"message"`
}

// Results is the rendered prediction panel.
type Results struct {
	Visible       bool   `json:"visible"`
	SummaryHTML   string `json:"summary_html"`
	CardsHTML     string `json:"cards_html"`
	CardCount     int    `json:"card_count"`
	ScrollDelayMs int64  `json:"scroll_delay_ms"`
}

// Snapshot is a point-in-time copy of a session's UI state.
type Snapshot struct {
	Version     uint64     `json:"version"`
	TrainButton Button     `json:"train_button"`
	TrainStatus StatusLine `json:"train_status"`
	Loading     bool       `json:"loading"`
	Error       Banner     `json:"error"`
	Results     Results    `json:"results"`
}

func resultsFrom(f render.Fragment) Results {
	return Results{
		Visible:       true,
		SummaryHTML:   f.SummaryHTML,
		CardsHTML:     f.CardsHTML(),
		CardCount:     len(f.Cards),
		ScrollDelayMs: f.ScrollDelay.Milliseconds(),
	}
}
