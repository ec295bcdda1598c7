package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
)

type optionQueries interface {
	GetOption(ctx context.Context, name string) (dbgen.Option, error)
	UpsertOption(ctx context.Context, arg dbgen.UpsertOptionParams) error
}

// PGStore keeps settings records as JSON objects in the options table.
type PGStore struct {
	queries optionQueries
}

// NewPGStore constructs a Postgres-backed Store.
func NewPGStore(queries optionQueries) (*PGStore, error) {
	if queries == nil {
		return nil, errors.New("settings: queries provider is required")
	}
	return &PGStore{queries: queries}, nil
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, name string) (map[string]string, bool, error) {
	row, err := s.queries.GetOption(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("settings: get option %s: %w", name, err)
	}
	values, err := decodeValues(row.Value)
	if err != nil {
		return nil, false, fmt.Errorf("settings: decode option %s: %w", name, err)
	}
	return values, true, nil
}

// Put implements Store.
func (s *PGStore) Put(ctx context.Context, name string, values map[string]string) error {
	if values == nil {
		values = map[string]string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("settings: encode option %s: %w", name, err)
	}
	if err := s.queries.UpsertOption(ctx, dbgen.UpsertOptionParams{Name: name, Value: payload}); err != nil {
		return fmt.Errorf("settings: upsert option %s: %w", name, err)
	}
	return nil
}

// decodeValues accepts any flat JSON object, stringifying scalar values so
// records written by hand (numbers, booleans, null) still load.
func decodeValues(raw []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(generic))
	for key, v := range generic {
		switch typed := v.(type) {
		case nil:
			values[key] = ""
		case string:
			values[key] = typed
		case json.Number:
			values[key] = typed.String()
		case bool:
			values[key] = strconv.FormatBool(typed)
		default:
			return nil, fmt.Errorf("field %s: unsupported value %T", key, v)
		}
	}
	return values, nil
}
