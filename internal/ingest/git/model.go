package git

import "time"

// Author represents Git author information
type Author struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	When  time.Time `json:"when"`
}

// Revision is a resolved commit
type Revision struct {
	Hash      string `json:"hash"`
	ShortHash string `json:"short_hash"` // First 8 chars for display
	Subject   string `json:"subject"`    // First line of message
	Body      string `json:"body"`       // Rest of message
	Author    Author `json:"author"`
}

// FileChange summarizes one file in a revision diff
type FileChange struct {
	Path      string `json:"path"`
	OldPath   string `json:"old_path,omitempty"` // For renames
	Status    string `json:"status"`             // "added", "modified", "deleted", "renamed"
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	IsBinary  bool   `json:"is_binary"`
}

// RevisionDiff is the change a head revision introduces over its merge
// base with a base revision, the same view a pull request shows
type RevisionDiff struct {
	Base      Revision     `json:"base"`
	Head      Revision     `json:"head"`
	MergeBase string       `json:"merge_base"`
	Files     []FileChange `json:"files"`

	// Patch is the unified diff text
	Patch string `json:"patch"`
}
