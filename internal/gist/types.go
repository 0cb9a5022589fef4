// ABOUTME: Wire types for the GitHub Gist REST API
// ABOUTME: Gist and File mirror the response shape; GistRequest is the create/update body

package gist

// File is one named file inside a gist.
type File struct {
	Filename  string `json:"filename,omitempty"`
	Type      string `json:"type,omitempty"`
	Size      int    `json:"size,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Content   string `json:"content"`
}

// Gist is a hosted, versioned container of named files.
type Gist struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Public      bool             `json:"public"`
	Files       map[string]*File `json:"files"`
	HTMLURL     string           `json:"html_url,omitempty"`
	CreatedAt   string           `json:"created_at,omitempty"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
}

// FileContent returns the content of the named file and whether it was present.
// A file listed with empty content reports ok=false.
func (g *Gist) FileContent(name string) (string, bool) {
	if g == nil || g.Files == nil {
		return "", false
	}
	f, ok := g.Files[name]
	if !ok || f == nil || f.Content == "" {
		return "", false
	}
	return f.Content, true
}

// FileUpdate is the per-file body of a create or update request.
type FileUpdate struct {
	Content string `json:"content"`
}

// GistRequest is the JSON body for POST /gists and PATCH /gists/{id}.
type GistRequest struct {
	Description string                `json:"description"`
	Public      bool                  `json:"public"`
	Files       map[string]FileUpdate `json:"files"`
}
