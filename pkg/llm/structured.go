package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema used to validate model output.
type Schema struct {
	s *gojsonschema.Schema
}

// MustSchema compiles a schema literal; it panics on a broken literal.
func MustSchema(src string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid schema: %v", err))
	}
	return &Schema{s: s}
}

// Validate returns nil when doc satisfies the schema.
func (s *Schema) Validate(doc string) error {
	if s == nil {
		return nil
	}
	res, err := s.s.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// ParseResult is either a decoded value or the raw text the model produced.
type ParseResult[T any] struct {
	Value     T
	Raw       string
	Malformed bool
	Reason    string
}

func (r ParseResult[T]) OK() bool { return !r.Malformed }

// Decode turns raw model output into T: strips code fences, cuts the outer
// JSON object, validates it against schema and unmarshals.
func Decode[T any](raw string, schema *Schema) ParseResult[T] {
	res := ParseResult[T]{Raw: raw}
	doc := ExtractJSON(CleanResponse(raw))
	if doc == "" {
		res.Malformed = true
		res.Reason = "no JSON object in response"
		return res
	}
	if !json.Valid([]byte(doc)) {
		res.Malformed = true
		res.Reason = "response is not valid JSON"
		return res
	}
	if err := schema.Validate(doc); err != nil {
		res.Malformed = true
		res.Reason = err.Error()
		return res
	}
	if err := json.Unmarshal([]byte(doc), &res.Value); err != nil {
		res.Malformed = true
		res.Reason = err.Error()
		return res
	}
	return res
}

// GenerateStructured asks the model and decodes the reply. Transport errors and
// timeouts come back as error; a reply that could not be decoded comes back as
// a Malformed result.
func GenerateStructured[T any](ctx context.Context, m ChatModel, timeout time.Duration, systemPrompt, userPrompt string, schema *Schema) (ParseResult[T], error) {
	raw, err := AskWithTimeout(ctx, m, timeout, systemPrompt, userPrompt)
	if err != nil {
		return ParseResult[T]{}, err
	}
	return Decode[T](raw, schema), nil
}

// CleanResponse strips markdown code fences around a model reply.
func CleanResponse(response string) string {
	if !strings.Contains(response, "```") {
		return strings.TrimSpace(response)
	}
	start := strings.Index(response, "```")
	body := response[start+3:]
	// язык блока (```json) отрезаем до конца строки
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// ExtractJSON returns the outermost {...} substring or "".
func ExtractJSON(s string) string {
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i < 0 || j <= i {
		return ""
	}
	return s[i : j+1]
}
