package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

var documentTypes = map[string]string{
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".json": "application/json",
}

// DocumentHandler serves the scenario documents found in a virtual
// file system read-only under a path prefix.
type DocumentHandler struct {
	prefix string
	files  http.Handler
}

var _ http.Handler = (*DocumentHandler)(nil)

// NewDocumentHandlerFor serves the documents of an OS directory.
func NewDocumentHandlerFor(dir, prefix string) (*DocumentHandler, error) {
	fs, err := projectionfs.New(osfs.OsFs, dir)
	if err != nil {
		return nil, err
	}
	return NewDocumentHandler(fs, prefix), nil
}

func NewDocumentHandler(fs vfs.FileSystem, prefix string) *DocumentHandler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &DocumentHandler{
		prefix: prefix,
		files:  http.StripPrefix(prefix, http.FileServerFS(vfs.AsIoFS(fs))),
	}
}

func (d *DocumentHandler) RegisterHandler(srv *Server) {
	srv.Handle(d.prefix, d)
}

func (d *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "documents are read-only", http.StatusMethodNotAllowed)
		return
	}
	if t, ok := documentTypes[path.Ext(r.URL.Path)]; ok {
		w.Header().Set("Content-Type", t)
	}
	log.Debug("{{method}} document {{url}}", "method", r.Method, "url", r.URL)
	d.files.ServeHTTP(w, r)
}
