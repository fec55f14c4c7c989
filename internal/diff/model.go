package diff

// LineType tags a line inside a hunk
type LineType string

const (
	LineAdded   LineType = "added"
	LineRemoved LineType = "removed"
	LineContext LineType = "context"
)

// Line is a single typed line of a hunk with its prefix character stripped.
// LineNumber refers to the new file for added and context lines and to the
// old file for removed lines.
type Line struct {
	Type       LineType `json:"type"`
	Content    string   `json:"content"`
	LineNumber int      `json:"line_number"`
}

// Hunk represents one "@@ ... @@" section of a unified diff
type Hunk struct {
	OldStart     int    `json:"old_start"`
	OldLineCount int    `json:"old_line_count"`
	NewStart     int    `json:"new_start"`
	NewLineCount int    `json:"new_line_count"`
	Lines        []Line `json:"lines"`
}

// FileDiff groups the hunks that belong to one file of a multi-file diff
type FileDiff struct {
	OldPath string `json:"old_path,omitempty"`
	NewPath string `json:"new_path,omitempty"`
	Hunks   []Hunk `json:"hunks"`
}

// Path returns the most useful display path for the file
func (f FileDiff) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// ChangedLines holds the contents of every added and removed line in diff order
type ChangedLines struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Stats are simple line counts for a diff
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Changes   int `json:"changes"`
}
