package entity

// Wire payloads of the Gemini REST API.

type GeminiPart struct {
	Text string `json:"text"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  GeminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type GeminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type GeminiGenerateRequest struct {
	Contents         []GeminiContent        `json:"contents"`
	GenerationConfig GeminiGenerationConfig `json:"generationConfig"`
}

type GeminiGenerateResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// Text concatenates the parts of the first candidate.
func (r *GeminiGenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// GenerationParams are the sampling parameters of a generation call.
type GenerationParams struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}
