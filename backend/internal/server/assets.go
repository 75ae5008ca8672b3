package server

import (
	"bytes"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// newMinifier handles the three asset types the web client ships.
func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

type asset struct {
	data []byte
	mime string
}

// minifiedAssets serves the web client with every html, css and js file
// minified once up front. Files the minifier cannot handle are served as is.
type minifiedAssets struct {
	files    map[string]asset
	fallback http.Handler
	modTime  time.Time
}

func newAssets(fsys fs.FS, doMinify bool, logger *slog.Logger) (http.Handler, error) {
	fileServer := http.FileServer(http.FS(fsys))
	if !doMinify {
		return fileServer, nil
	}
	m := newMinifier()
	a := &minifiedAssets{files: make(map[string]asset), fallback: fileServer, modTime: time.Now()}
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		mediatype := mime.TypeByExtension(path.Ext(name))
		if i := strings.IndexByte(mediatype, ';'); i >= 0 {
			mediatype = mediatype[:i]
		}
		switch path.Ext(name) {
		case ".html", ".css", ".js":
		default:
			return nil
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		out, err := m.Bytes(mediatype, raw)
		if err != nil {
			logger.Warn("asset not minified", "file", name, "error", err)
			out = raw
		}
		a.files["/"+name] = asset{data: out, mime: mediatype}
		logger.Debug("asset minified", "file", name, "before", len(raw), "after", len(out))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *minifiedAssets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path
	if strings.HasSuffix(name, "/") {
		name += "index.html"
	}
	f, ok := a.files[name]
	if !ok {
		a.fallback.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", f.mime)
	http.ServeContent(w, r, path.Base(name), a.modTime, bytes.NewReader(f.data))
}
