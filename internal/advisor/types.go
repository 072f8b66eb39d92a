package advisor

// PredictionRequest is the body posted to the backend predict endpoint.
type PredictionRequest struct {
	Year     int `json:"year"`
	MaxGames int `json:"max_games"`
}

// GameResult is one ranked recommendation returned by the backend.
type GameResult struct {
	Rank           int     `json:"rank"`
	Name           string  `json:"name"`
	Platform       string  `json:"platform"`
	Genre          string  `json:"genre"`
	Publisher      string  `json:"publisher"`
	PredictedSales float64 `json:"predicted_sales"`
	NASales        float64 `json:"na_sales"`
	EUSales        float64 `json:"eu_sales"`
	JPSales        float64 `json:"jp_sales"`
	OtherSales     float64 `json:"other_sales"`
}

// PredictionResponse mirrors the backend predict payload. Games are kept in
// the order the backend sent them.
type PredictionResponse struct {
	Success        bool         `json:"success"`
	Year           int          `json:"year"`
	TotalGames     int          `json:"total_games"`
	RequestedStock int          `json:"requested_stock"`
	Message        string       `json:"message"`
	Games          []GameResult `json:"games"`
	Error          string       `json:"error,omitempty"`
}

// TrainResponse mirrors the backend train-model payload.
type TrainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type yearsResponse struct {
	Years []int  `json:"years"`
	Error string `json:"error,omitempty"`
}
