// Package plotserver serves a live view of a figure over HTTP.
//
// The following endpoints are provided:
//
//	GET /                the plot page
//	GET /static/...      scripts used by the plot page
//	GET /plot.png        the plot rendered as a PNG image
//	GET /api/plot        the plot data as JSON
//	GET /api/frames      recently recorded frames as JSON
//	GET /ws              a websocket that sends the plot data as JSON
//	                     whenever it changes
package plotserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NYTimes/gziphandler"
	"github.com/juju/loggo"
	"github.com/julienschmidt/httprouter"
	"go4.org/syncutil/singleflight"
	errgo "gopkg.in/errgo.v1"
	"gopkg.in/httprequest.v1"

	"github.com/rogpeppe/liveplot/asset"
	"github.com/rogpeppe/liveplot/figure"
	"github.com/rogpeppe/liveplot/framestore"
)

var logger = loggo.GetLogger("liveplot.plotserver")

// maxImageSize holds the largest width or height
// that can be asked for from /plot.png.
const maxImageSize = 4000

// FrameSource is used to find recently recorded frames.
// It is implemented by *framestore.Store.
type FrameSource interface {
	Latest(n int) ([]framestore.Frame, error)
}

type Params struct {
	// Figure holds the figure to serve.
	Figure *figure.Figure
	// Frames is used to serve /api/frames.
	// If it's nil, no frames will be served.
	Frames FrameSource
	// DataFile holds the name of the data file,
	// shown on the plot page.
	DataFile string
}

// Handler is the HTTP handler for the plot server.
type Handler struct {
	p       Params
	handler http.Handler
	renders singleflight.Group
}

// New returns a new Handler that serves p.Figure.
func New(p Params) (*Handler, error) {
	if p.Figure == nil {
		return nil, errgo.New("no figure set")
	}
	h := &Handler{
		p: p,
	}
	r := httprouter.New()
	r.Handler("GET", "/", http.HandlerFunc(h.serveIndex))
	r.Handler("GET", "/plot.png", http.HandlerFunc(h.servePNG))
	r.ServeFiles("/static/*filepath", http.FS(asset.Static()))
	for _, ah := range reqServer.Handlers(func(hp httprequest.Params) (*apiHandler, context.Context, error) {
		return &apiHandler{h}, hp.Context, nil
	}) {
		r.Handle(ah.Method, ah.Path, ah.Handle)
	}
	h.handler = gziphandler.GzipHandler(r)
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/ws" {
		// The websocket must not go through the gzip
		// handler, which can't hijack connections.
		h.serveWS(w, req)
		return
	}
	h.handler.ServeHTTP(w, req)
}

func (h *Handler) serveIndex(w http.ResponseWriter, req *http.Request) {
	s := h.p.Figure.Snapshot()
	p := indexTemplParams{
		Title:    s.Title,
		DataFile: h.p.DataFile,
		Length:   len(s.X),
	}
	if p.Title == "" {
		p.Title = "liveplot"
	}
	var b bytes.Buffer
	if err := indexTempl.Execute(&b, p); err != nil {
		logger.Errorf("index template execution failed: %v", err)
		http.Error(w, fmt.Sprintf("template execution failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b.Bytes())
}

func (h *Handler) servePNG(w http.ResponseWriter, req *http.Request) {
	width, err := imageSizeParam(req, "width")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := imageSizeParam(req, "height")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s := h.p.Figure.Snapshot()
	// Many clients are likely to ask for the same version
	// at the same time, so render each one only once.
	key := fmt.Sprintf("%d %dx%d", s.Version, width, height)
	data, err := h.renders.Do(key, func() (interface{}, error) {
		var buf bytes.Buffer
		if err := s.RenderPNG(&buf, width, height); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		logger.Errorf("%v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data.([]byte))
}

// imageSizeParam returns the value of the given image dimension
// from the request form, or zero if it's not set.
func imageSizeParam(req *http.Request, name string) (int, error) {
	s := req.FormValue(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > maxImageSize {
		return 0, errgo.Newf("invalid %s %q", name, s)
	}
	return n, nil
}
