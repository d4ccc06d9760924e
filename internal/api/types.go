package api

import "github.com/born-ml/deepzero/internal/wordvec"

// GenerateRequest asks the language model for text.
//
// Prefix words are fed to the model first and the last one becomes the
// start word. Skip words are never produced.
type GenerateRequest struct {
	Prefix []string `json:"prefix"`
	Skip   []string `json:"skip,omitempty"`
	Length int      `json:"length,omitempty"`
}

// GenerateResponse carries the generated words, the prefix included.
type GenerateResponse struct {
	ID    string   `json:"id"`
	Words []string `json:"words"`
	Text  string   `json:"text"`
}

// SimilarRequest asks for the nearest neighbours of Query.
type SimilarRequest struct {
	Query string `json:"query"`
	Top   int    `json:"top,omitempty"`
}

// AnalogyRequest asks "A is to B as C is to ?".
type AnalogyRequest struct {
	A   string `json:"a"`
	B   string `json:"b"`
	C   string `json:"c"`
	Top int    `json:"top,omitempty"`
}

// NeighborsResponse lists ranked words.
type NeighborsResponse struct {
	ID        string             `json:"id"`
	Neighbors []wordvec.Neighbor `json:"neighbors"`
}

// HealthResponse reports which endpoints have a model behind them.
type HealthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Generate bool   `json:"generate"`
	Similar  bool   `json:"similar"`
}
