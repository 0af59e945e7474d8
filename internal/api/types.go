package api

// WindowsRequest asks for the sample tables of one token sequence. Exactly
// one of Tokens and Text is used; Text needs a server vocabulary.
type WindowsRequest struct {
	Tokens    []int32 `json:"tokens,omitempty"`
	Text      string  `json:"text,omitempty"`
	Radius    int     `json:"radius"`
	VocabSize int     `json:"vocab_size,omitempty"`
	// Store keeps the result retrievable by id. Defaults to true.
	Store *bool `json:"store,omitempty"`
}

type WindowsResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	CreatedAt int64        `json:"created_at"`
	Radius    int          `json:"radius"`
	Tokens    []int32      `json:"tokens"`
	CBOW      [][]int32    `json:"cbow"`
	SkipGram  [][2]int32   `json:"skipgram"`
	Usage     WindowsUsage `json:"usage"`
}

type WindowsUsage struct {
	Tokens       int `json:"tokens"`
	CBOWRows     int `json:"cbow_rows"`
	SkipGramRows int `json:"skipgram_rows"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type AnalyzeResponse struct {
	Object string   `json:"object"`
	Tokens []string `json:"tokens"`
	// IDs and Unknown are set when the server has a vocabulary. Unknown
	// lists each distinct token that maps to the fallback id.
	IDs     []int32  `json:"ids,omitempty"`
	Unknown []string `json:"unknown,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	VocabSize int    `json:"vocab_size,omitempty"`
	Stored    int    `json:"stored"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
