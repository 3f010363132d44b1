package plotserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	errgo "gopkg.in/errgo.v1"
	"gopkg.in/httprequest.v1"

	"github.com/rogpeppe/liveplot/figure"
	"github.com/rogpeppe/liveplot/framestore"
	"github.com/rogpeppe/liveplot/googlecharts"
)

const (
	defaultFrameLimit = 10
	maxFrameLimit     = 1000
)

var reqServer = httprequest.Server{
	ErrorMapper: errorMapper,
}

// errorMapper is like httprequest.DefaultErrorMapper except that
// badly formed request parameters are reported as a bad request.
func errorMapper(ctx context.Context, err error) (int, interface{}) {
	if errgo.Cause(err) == httprequest.ErrUnmarshal {
		return http.StatusBadRequest, &httprequest.RemoteError{
			Code:    httprequest.CodeBadRequest,
			Message: err.Error(),
		}
	}
	return httprequest.DefaultErrorMapper(ctx, err)
}

type apiHandler struct {
	h *Handler
}

// Plot holds the JSON form of a figure, as returned by /api/plot
// and sent on the websocket.
type Plot struct {
	Title     string `json:"title,omitempty"`
	Version   int    `json:"version"`
	Watermark int64  `json:"watermark"`
	// Updated holds the time the figure was last updated.
	// It's omitted if the figure has never been updated.
	Updated *time.Time              `json:"updated,omitempty"`
	YMin    float64                 `json:"yMin"`
	YMax    float64                 `json:"yMax"`
	Data    *googlecharts.DataTable `json:"data"`
}

// NewPlot returns the JSON form of the given snapshot.
func NewPlot(s figure.Snapshot) (*Plot, error) {
	dt, err := s.DataTable()
	if err != nil {
		return nil, errgo.Mask(err)
	}
	p := &Plot{
		Title:     s.Title,
		Version:   s.Version,
		Watermark: s.Watermark,
		YMin:      s.YMin,
		YMax:      s.YMax,
		Data:      dt,
	}
	if !s.Updated.IsZero() {
		t := s.Updated
		p.Updated = &t
	}
	return p, nil
}

type plotGetRequest struct {
	httprequest.Route `httprequest:"GET /api/plot"`
}

func (h *apiHandler) GetPlot(*plotGetRequest) (*Plot, error) {
	return NewPlot(h.h.p.Figure.Snapshot())
}

type framesGetRequest struct {
	httprequest.Route `httprequest:"GET /api/frames"`
	// Limit holds the maximum number of frames to return.
	Limit int `httprequest:"limit,form"`
}

// Frames is returned by /api/frames.
type Frames struct {
	// Frames holds the most recent frames, most recent first.
	Frames []framestore.Frame `json:"frames"`
}

func (h *apiHandler) GetFrames(req *framesGetRequest) (*Frames, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, &httprequest.RemoteError{
			Code:    httprequest.CodeBadRequest,
			Message: fmt.Sprintf("negative limit %d", limit),
		}
	case limit == 0:
		limit = defaultFrameLimit
	case limit > maxFrameLimit:
		limit = maxFrameLimit
	}
	resp := &Frames{
		Frames: []framestore.Frame{},
	}
	if h.h.p.Frames == nil {
		return resp, nil
	}
	frames, err := h.h.p.Frames.Latest(limit)
	if err != nil {
		return nil, errgo.Notef(err, "cannot get frames")
	}
	if frames != nil {
		resp.Frames = frames
	}
	return resp, nil
}
