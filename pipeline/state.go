package pipeline

import "time"

// State is the single record threaded through every stage of one run.
// A run owns its State exclusively; stages read earlier fields and overwrite their own.
type State struct {
	ImagePath string `json:"image_path,omitempty"`
	ImageB64  string `json:"-"`

	RawText string   `json:"raw_text"`
	Theme   string   `json:"theme"`
	Outline []string `json:"outline"`

	BlogMarkdown string `json:"blog_markdown"`

	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Slug        string   `json:"slug"`
	ReadingTime int      `json:"reading_time"`

	ReactCode string `json:"react_code"`

	// Validated reports whether the most recently produced artifact passed its validator.
	Validated bool   `json:"validated"`
	Feedback  string `json:"feedback,omitempty"`

	RetryCount int `json:"retry_count"`

	Logs []string `json:"logs"`
}

// NewState creates the initial state for one run.
func NewState(imagePath string) *State {
	return &State{ImagePath: imagePath, Logs: []string{}}
}

// AddLog appends message to the run log and returns the same state.
func (s *State) AddLog(message string) *State {
	s.Logs = append(s.Logs, message)
	return s
}

// Metadata is the descriptive data derived from the finished document.
type Metadata struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Slug        string   `json:"slug"`
	ReadingTime int      `json:"reading_time"`
}

// Metadata returns a snapshot of the metadata fields.
func (s *State) Metadata() Metadata {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	return Metadata{
		Title:       s.Title,
		Summary:     s.Summary,
		Tags:        tags,
		Slug:        s.Slug,
		ReadingTime: s.ReadingTime,
	}
}

// ArticleRecord is the persisted form of the metadata, stamped with its creation time.
type ArticleRecord struct {
	Metadata
	CreatedAt time.Time `json:"created_at"`
}

// Outline is the theme/outline producer's result.
type Outline struct {
	Theme  string   `json:"theme"`
	Points []string `json:"outline"`
}

// Result is the public view of a finished run as returned by the HTTP API.
type Result struct {
	Theme        string   `json:"theme"`
	Outline      []string `json:"outline"`
	BlogMarkdown string   `json:"blog_markdown"`
	ReactCode    string   `json:"react_code"`
	Logs         []string `json:"logs"`
	Validated    bool     `json:"validated"`
	Metadata     Metadata `json:"metadata"`
}

// Result returns the public view of s.
func (s *State) Result() Result {
	outline := s.Outline
	if outline == nil {
		outline = []string{}
	}
	logs := s.Logs
	if logs == nil {
		logs = []string{}
	}
	meta := s.Metadata()
	return Result{
		Theme:        s.Theme,
		Outline:      outline,
		BlogMarkdown: s.BlogMarkdown,
		ReactCode:    s.ReactCode,
		Logs:         logs,
		Validated:    s.Validated,
		Metadata:     meta,
	}
}
