package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// envelope wraps every typed value so the schema version travels with it.
type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Encode marshals v inside a versioned envelope.
func Encode(version int, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	out, err := json.Marshal(envelope{V: version, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(out), nil
}

// Decode unmarshals raw into out if it is an envelope of the given version.
// It fails closed: any mismatch returns false and leaves out untouched.
func Decode[T any](raw string, version int, out *T) bool {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return false
	}
	if env.V != version || len(env.Data) == 0 || string(env.Data) == "null" {
		return false
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return false
	}
	*out = v
	return true
}

// Load reads key and decodes it. Read errors and malformed values are logged
// and reported as absent.
func Load[T any](ctx context.Context, store KeyValueStore, key string, version int, out *T) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		slog.Warn("Store read failed, using default", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !ok {
		return false
	}
	if !Decode(raw, version, out) {
		slog.Warn("Discarding undecodable stored value", slog.String("key", key))
		return false
	}
	return true
}

// Save encodes v and writes it under key.
func Save(ctx context.Context, store KeyValueStore, key string, version int, v any) error {
	raw, err := Encode(version, v)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// LoadCompat is Load that also accepts the bare JSON payload written by
// clients that predate the envelope.
func LoadCompat[T any](ctx context.Context, store KeyValueStore, key string, version int, out *T) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		slog.Warn("Store read failed, using default", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !ok {
		return false
	}
	if Decode(raw, version, out) {
		return true
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Warn("Discarding undecodable stored value", slog.String("key", key))
		return false
	}
	slog.Debug("Read legacy value", slog.String("key", key))
	*out = v
	return true
}
