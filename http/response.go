package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeBadQuery = "bad_query"
)

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}

func writeError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	if errors.IsType(err, ErrTypeBadQuery) {
		statusCode = http.StatusBadRequest
	} else {
		logs.Warn(err)
	}

	writeJSON(w, statusCode, errorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})
}
