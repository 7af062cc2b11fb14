package backend

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

// paramsRecord is the wire shape of backendParams on a submission request.
type paramsRecord struct {
	OutputFormat string  `json:"outputFormat"`
	StemMode     string  `json:"stemMode"`
	Iterations   int     `json:"iterations"`
	Softmask     bool    `json:"softmask"`
	Alpha        float64 `json:"alpha"`
	ShiftCount   int     `json:"shiftCount"`
}

var paramSchemas = mustResolveSchemas()

func mustResolveSchemas() map[Kind]*jsonschema.Resolved {
	outputFormat := &jsonschema.Schema{Type: "string", Enum: enumOf(OutputFormats)}

	objectSchema := func(properties map[string]*jsonschema.Schema) *jsonschema.Schema {
		required := []string{}
		for name := range properties {
			required = append(required, name)
		}
		properties["outputFormat"] = outputFormat
		required = append(required, "outputFormat")

		return &jsonschema.Schema{
			Type:                 "object",
			Properties:           properties,
			Required:             required,
			AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
		}
	}

	schemas := map[Kind]*jsonschema.Schema{
		BaselineKind: objectSchema(map[string]*jsonschema.Schema{}),
		WindowedMultibandKind: objectSchema(map[string]*jsonschema.Schema{
			"stemMode": {Type: "string", Enum: enumOf(StemModes)},
		}),
		IterativeKind: objectSchema(map[string]*jsonschema.Schema{
			"iterations": {Type: "integer", Minimum: jsonschema.Ptr(1.0)},
			"softmask":   {Type: "boolean"},
			"alpha":      {Type: "number", ExclusiveMinimum: jsonschema.Ptr(0.0)},
		}),
		EnsembleKind: objectSchema(map[string]*jsonschema.Schema{
			"shiftCount": {Type: "integer", Minimum: jsonschema.Ptr(0.0), Maximum: jsonschema.Ptr(10.0)},
		}),
	}

	resolved := map[Kind]*jsonschema.Resolved{}
	for kind, schema := range schemas {
		r, err := schema.Resolve(nil)
		if err != nil {
			panic(fmt.Sprintf("backend params schema for %s does not resolve: %v", kind, err))
		}
		resolved[kind] = r
	}

	return resolved
}

func enumOf[T ~string](values []T) []any {
	enum := make([]any, 0, len(values))
	for _, value := range values {
		enum = append(enum, string(value))
	}
	return enum
}

// Parse validates backendParams for the named kind and returns the closed config record.
func Parse(kindName string, params map[string]any) (Config, error) {
	kind, ok := ParseKind(kindName)
	if !ok {
		return Config{}, mark.Message(InvalidConfigMark, fmt.Sprintf("Unknown backend kind %q", kindName))
	}

	params = maps.Clone(params)
	if params == nil {
		params = map[string]any{}
	}

	// clients send stemMode as either 4 or "4"
	if number, isNumber := params["stemMode"].(float64); isNumber {
		params["stemMode"] = strconv.FormatFloat(number, 'f', -1, 64)
	}

	if err := paramSchemas[kind].Validate(params); err != nil {
		return Config{}, mark.Wrap(err, InvalidConfigMark,
			fmt.Sprintf("The parameters for backend %s are invalid", kind))
	}

	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return Config{}, mark.Wrap(err, InvalidConfigMark, "Failed to re-encode backend params")
	}

	record := paramsRecord{}
	if err := json.Unmarshal(jsonBytes, &record); err != nil {
		return Config{}, mark.Wrap(err, InvalidConfigMark, "Failed to decode backend params")
	}

	config := Config{
		Kind:         kind,
		OutputFormat: OutputFormat(record.OutputFormat),
	}

	switch kind {
	case WindowedMultibandKind:
		config.StemMode = StemMode(record.StemMode)
	case IterativeKind:
		config.Iterations = record.Iterations
		config.Softmask = record.Softmask
		config.Alpha = record.Alpha
	case EnsembleKind:
		config.ShiftCount = record.ShiftCount
	}

	return config, nil
}
