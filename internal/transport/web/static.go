package web

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var indexPage []byte

// Index serves the single-page dashboard.
func Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}
