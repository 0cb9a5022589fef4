// ABOUTME: In-process fake of the GitHub Gist API for handler tests
// ABOUTME: Records call counts per endpoint and can be told to fail specific operations

package storesync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/2389/store-sync/internal/gist"
)

// failure makes one endpoint answer with a fixed status and body.
type failure struct {
	status int
	body   string
}

func (e *failure) write(w http.ResponseWriter) {
	w.WriteHeader(e.status)
	_, _ = w.Write([]byte(e.body))
}

type fakeGitHub struct {
	mu     sync.Mutex
	gists  map[string]*gist.Gist
	order  []string
	nextID int

	listCalls   int
	getCalls    int
	createCalls int
	updateCalls int
	getPaths    []string
	lastAuth    string
	lastCreate  *gist.GistRequest
	lastUpdate  *gist.GistRequest

	// listGate, when set, holds list requests until it is closed;
	// listStarted is signaled as each one arrives.
	listGate    chan struct{}
	listStarted chan struct{}

	listFail   *failure
	getFail    *failure
	createFail *failure
	updateFail *failure
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{gists: make(map[string]*gist.Gist)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gists", f.handleList)
	mux.HandleFunc("GET /gists/{id}", f.handleGet)
	mux.HandleFunc("POST /gists", f.handleCreate)
	mux.HandleFunc("PATCH /gists/{id}", f.handleUpdate)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

// seed adds a gist with the given description and products.json content.
func (f *fakeGitHub) seed(id, description, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g := &gist.Gist{ID: id, Description: description, Files: map[string]*gist.File{}}
	if content != "" {
		g.Files[ProductsFile] = &gist.File{Filename: ProductsFile, Content: content}
	}
	f.gists[id] = g
	f.order = append(f.order, id)
}

func (f *fakeGitHub) calls() (list, get, create, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.getCalls, f.createCalls, f.updateCalls
}

func (f *fakeGitHub) handleList(w http.ResponseWriter, r *http.Request) {
	if f.listStarted != nil {
		f.listStarted <- struct{}{}
	}
	if f.listGate != nil {
		<-f.listGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastAuth = r.Header.Get("Authorization")

	if f.listFail != nil {
		f.listFail.write(w)
		return
	}

	out := make([]gist.Gist, 0, len(f.order))
	for _, id := range f.order {
		g := *f.gists[id]
		// The list endpoint omits file contents
		g.Files = map[string]*gist.File{}
		out = append(out, g)
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeGitHub) handleGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	f.getPaths = append(f.getPaths, r.URL.Path)

	if f.getFail != nil {
		f.getFail.write(w)
		return
	}

	g, ok := f.gists[r.PathValue("id")]
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(g)
}

func (f *fakeGitHub) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	var req gist.GistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.lastCreate = &req

	if f.createFail != nil {
		f.createFail.write(w)
		return
	}

	f.nextID++
	id := fmt.Sprintf("gist-%d", f.nextID)
	g := &gist.Gist{ID: id, Description: req.Description, Public: req.Public, Files: map[string]*gist.File{}}
	for name, file := range req.Files {
		g.Files[name] = &gist.File{Filename: name, Content: file.Content}
	}
	f.gists[id] = g
	f.order = append(f.order, id)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(g)
}

func (f *fakeGitHub) handleUpdate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++

	var req gist.GistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.lastUpdate = &req

	if f.updateFail != nil {
		f.updateFail.write(w)
		return
	}

	g, ok := f.gists[r.PathValue("id")]
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	g.Description = req.Description
	for name, file := range req.Files {
		g.Files[name] = &gist.File{Filename: name, Content: file.Content}
	}
	_ = json.NewEncoder(w).Encode(g)
}
