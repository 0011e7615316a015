package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the shape every JSON response must have.
const envelopeSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"error":   {"type": ["string", "null"]},
		"message": {"type": ["string", "null"]}
	}
}`

var loadEnvelopeSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
})

// envelope is the decoded {success, data|error} wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	ErrMsg  string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (e envelope) message() string {
	if e.ErrMsg != "" {
		return e.ErrMsg
	}
	return e.Message
}

// parseEnvelope validates raw against the envelope schema and decodes it.
func parseEnvelope(raw []byte) (envelope, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return envelope{}, errors.New("empty body")
	}

	schema, err := loadEnvelopeSchema()
	if err != nil {
		return envelope{}, fmt.Errorf("load envelope schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return envelope{}, fmt.Errorf("invalid json: %w", err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}
		return envelope{}, fmt.Errorf("unexpected envelope: %s", strings.Join(descs, "; "))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
