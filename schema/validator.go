package signalschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

//go:embed signal_batch.schema.json
var signalBatchSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateSignalBatch checks a JSON array of producer records against the
// ingestion schema and decodes it. Missing trend_score and metric_label
// default to 0 and "".
func ValidateSignalBatch(payload json.RawMessage) ([]signal.RawSignal, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode batch JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize batch JSON: %w", err)
	}

	var signals []signal.RawSignal
	if err := json.Unmarshal(normalized, &signals); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}

	for i := range signals {
		if err := validateSemantics(&signals[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	return signals, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("signal_batch.schema.json", strings.NewReader(signalBatchSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("signal_batch.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(item *signal.RawSignal) error {
	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(item.RawText) == "" {
		return fmt.Errorf("raw_text must not be empty")
	}
	if item.TrendScore < 0 {
		return fmt.Errorf("trend_score must be >= 0")
	}
	if trimmed := strings.TrimSpace(item.URL); trimmed != "" {
		if _, err := url.ParseRequestURI(trimmed); err != nil {
			return fmt.Errorf("url is not a valid URI: %w", err)
		}
	}
	return nil
}
