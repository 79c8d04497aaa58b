package ws

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/udisondev/rpgcore/internal/entity"
)

//go:embed frame.schema.json
var frameSchemaSource string

var frameSchema = jsonschema.MustCompileString("frame.schema.json", frameSchemaSource)

// ErrInvalidFrame wraps every decoding and validation failure.
var ErrInvalidFrame = errors.New("invalid frame")

// Request is a client frame: send Event to the entity called Entity.
type Request struct {
	ID     string       `json:"id,omitempty"`
	Entity string       `json:"entity"`
	Event  entity.Event `json:"event"`
}

// Response answers a Request. Exactly one of Event and Error is meaningful.
type Response struct {
	ID     string        `json:"id,omitempty"`
	Entity string        `json:"entity,omitempty"`
	Event  *entity.Event `json:"event,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// DecodeRequest validates data against the frame schema and decodes it.
func DecodeRequest(data []byte) (Request, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if err := frameSchema.Validate(raw); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return req, nil
}

func eventResponse(req Request, ev entity.Event) Response {
	return Response{ID: req.ID, Entity: req.Entity, Event: &ev}
}

func errorResponse(id string, err error) Response {
	return Response{ID: id, Error: err.Error()}
}
