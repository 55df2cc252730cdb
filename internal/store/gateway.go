// Package store persists named snapshots. A Gateway pairs a Backend (where bytes live) with a
// Codec (how values become bytes).
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/i474232898/weather-core/internal/log"
)

// Codec turns values into bytes and back.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default codec.
type JSONCodec struct{}

func (JSONCodec) Name() string                       { return "json" }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgpackCodec encodes with MessagePack, reusing the json struct tags.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// CodecByName resolves "json" or "msgpack".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// validatable is implemented by values that can reject a structurally valid but
// semantically incompatible decode.
type validatable interface {
	Validate() error
}

// Gateway saves and loads values of one type.
type Gateway[T any] struct {
	backend Backend
	codec   Codec
}

func NewGateway[T any](backend Backend, codec Codec) *Gateway[T] {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Gateway[T]{backend: backend, codec: codec}
}

// Save encodes v and stores it under name.
func (g *Gateway[T]) Save(name string, v T) error {
	data, err := g.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return g.backend.Put(name, data)
}

// Load returns the value stored under name. A missing record, an undecodable record and a
// record that fails validation all report false.
func (g *Gateway[T]) Load(name string) (T, bool) {
	var zero T

	data, err := g.backend.Get(name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnw("store: read failed", "name", name, "error", err)
		}
		return zero, false
	}

	var v T
	if err := g.codec.Unmarshal(data, &v); err != nil {
		log.Warnw("store: discarding undecodable record", "name", name, "codec", g.codec.Name(), "error", err)
		return zero, false
	}
	if vv, ok := any(&v).(validatable); ok {
		if err := vv.Validate(); err != nil {
			log.Warnw("store: discarding incompatible record", "name", name, "error", err)
			return zero, false
		}
	}
	return v, true
}
