package nio

import (
	"bytes"
	"context"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/http/mime"
	json "github.com/json-iterator/go"
)

// JSONExchangeHandler wraps FixedExchangeHandler, marshalling a Go value
// into the request body and unmarshalling the response body back into
// another one. It is the client-side home for json-iterator, the same JSON
// library the server-rendering path (http.Response.JSON / http.Body.JSON)
// relies on.
type JSONExchangeHandler struct {
	*FixedExchangeHandler
}

// NewJSONExchangeHandler marshals body as the request entity (setting
// Content-Type and Content-Length accordingly) and returns a handler ready
// to submit req. Pass a nil body for requests without an entity (GET, etc).
func NewJSONExchangeHandler(
	ctx context.Context, req *client.Request, body any, reuse ReuseStrategy,
) (*JSONExchangeHandler, error) {
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		req.Headers.Set("Content-Type", mime.JSON)
		req.WithBody(bytes.NewReader(encoded), int64(len(encoded)))
	}

	return &JSONExchangeHandler{
		FixedExchangeHandler: NewFixedExchangeHandler(ctx, req, reuse),
	}, nil
}

// DecodeResponse unmarshals the buffered response body into model. It must
// only be called after ResponseCompleted has fired (i.e. IsDone() is true).
func (h *JSONExchangeHandler) DecodeResponse(model any) error {
	return json.Unmarshal(h.Body.Bytes(), model)
}
