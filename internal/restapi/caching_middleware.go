package restapi

import (
	"fmt"
	"net/http"
)

type cacheTier int

const (
	cacheNone        cacheTier = 0
	cacheComputed    cacheTier = 60
	cacheNetworkData cacheTier = 300
)

const noStore = "no-cache, no-store, must-revalidate"

func (tier cacheTier) header() string {
	if tier <= cacheNone {
		return noStore
	}
	return fmt.Sprintf("public, max-age=%d", int(tier))
}

// cacheControl sets Cache-Control for tier on successful responses and stamps
// cacheable ones with the load time of the network that answered them.
// Everything else is marked uncacheable.
func (api *RestAPI) cacheControl(tier cacheTier, next http.Handler) http.Handler {
	header := tier.header()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &cacheControlWriter{ResponseWriter: w, header: header}
		if tier > cacheNone && api.Manager != nil {
			if loaded := api.Manager.LastUpdated(); !loaded.IsZero() {
				cw.lastModified = loaded.UTC().Format(http.TimeFormat)
			}
		}
		next.ServeHTTP(cw, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	header        string
	lastModified  string
	headerWritten bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.headerWritten = true
		h := w.ResponseWriter.Header()
		if code >= 200 && code < 300 {
			h.Set("Cache-Control", w.header)
			if w.lastModified != "" {
				h.Set("Last-Modified", w.lastModified)
			}
		} else {
			h.Set("Cache-Control", noStore)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cacheControlWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
