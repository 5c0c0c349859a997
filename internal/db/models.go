package db

// Item represents a row in the items table
type Item struct {
	ID      int64   `json:"id"`
	Parent  *int64  `json:"parent"` // nil for thread roots (stories)
	Type    string  `json:"type"`   // "story", "comment", "job", "poll", "pollopt"
	By      *string `json:"by"`
	Time    int64   `json:"time"` // Unix seconds
	Title   *string `json:"title"`
	Text    *string `json:"text"` // HTML markup
	Dead    bool    `json:"dead"`
	Deleted bool    `json:"deleted"`
}

// Run represents a row in the runs table
type Run struct {
	ID           string `json:"id"`          // UUID
	StartedAt    int64  `json:"started_at"`  // Unix millis
	FinishedAt   int64  `json:"finished_at"` // Unix millis
	Salt         string `json:"salt"`
	MaxBucket    int    `json:"max_bucket"`
	Seed         int64  `json:"seed"`
	IncludeRoots bool   `json:"include_roots"`
	InputCount   int    `json:"input_count"`
	OutputCount  int    `json:"output_count"`
	OutputPath   string `json:"output_path"`
}
