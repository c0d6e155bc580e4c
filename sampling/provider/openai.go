package provider

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
)

// RetryConfig controls how model calls are retried. Rate limits back off for about a
// minute; transient server errors retry sooner.
type RetryConfig struct {
	MaxRetries int

	RateLimitDelay    time.Duration
	RateLimitMaxDelay time.Duration

	ServerErrorDelay    time.Duration
	ServerErrorMaxDelay time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          2,
		RateLimitDelay:      65 * time.Second,
		RateLimitMaxDelay:   135 * time.Second,
		ServerErrorDelay:    5 * time.Second,
		ServerErrorMaxDelay: 60 * time.Second,
	}
}

func newExecutor[T any](cfg RetryConfig) failsafe.Executor[T] {
	rateLimited := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool { return isRateLimitError(err) }).
		WithBackoff(cfg.RateLimitDelay, cfg.RateLimitMaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		Build()
	serverErrors := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool { return isServerError(err) }).
		WithBackoff(cfg.ServerErrorDelay, cfg.ServerErrorMaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		Build()
	return failsafe.With[T](rateLimited, serverErrors)
}

// Retry runs fn, retrying rate-limit and server errors per cfg.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	return newExecutor[T](cfg).WithContext(ctx).Get(fn)
}

// CallWithRetry sends a Responses API request with DefaultRetryConfig.
func CallWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	return Retry(ctx, DefaultRetryConfig(), func() (*responses.Response, error) {
		return client.Responses.New(ctx, params)
	})
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// GenerateSchema reflects T into a strict JSON schema accepted by structured outputs.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	ensureOpenAICompliance(schemaObj)
	return schemaObj
}

// JSONSchemaFormat wraps a schema as a strict json_schema text format.
func JSONSchemaFormat(name, description string, schema map[string]interface{}) responses.ResponseFormatTextConfigUnionParam {
	return responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        name,
			Schema:      schema,
			Strict:      openai.Bool(true),
			Description: openai.String(description),
			Type:        "json_schema",
		},
	}
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

// ensureOpenAICompliance closes every object and marks all of its properties required.
func ensureOpenAICompliance(schema map[string]interface{}) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
			requiredFields := make([]string, 0, len(properties))
			for propName := range properties {
				requiredFields = append(requiredFields, propName)
			}
			sort.Strings(requiredFields)
			if len(requiredFields) > 0 {
				schema[requiredKey] = requiredFields
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureOpenAICompliance(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]interface{}); ok {
		ensureOpenAICompliance(items)
	}
}
