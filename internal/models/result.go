package models

// DataSource tags where a read model came from
type DataSource string

const (
	SourceLive     DataSource = "live"
	SourceFallback DataSource = "fallback"
)

// Result is the envelope returned by every endpoint and mutation
type Result[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
	Kind    string     `json:"kind,omitempty"`
	Source  DataSource `json:"source,omitempty"`
}

// Ok wraps live data
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, Source: SourceLive}
}

// Fail wraps an error message and kind
func Fail[T any](kind, msg string) Result[T] {
	return Result[T]{Success: false, Error: msg, Kind: kind}
}
