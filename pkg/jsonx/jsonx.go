package jsonx

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToDynamicJSON converts any Go value to a dynamic JSON object represented as a map[string]any.
// It first marshals the input value to JSON bytes and then unmarshals those bytes into a map.
// Tool parameter schemas and response schemas travel to model providers this way.
//
// Parameters:
//   - val: The input value of any type to be converted to a dynamic JSON object.
//
// Returns:
//   - map[string]any: A map representing the dynamic JSON object.
//   - error: An error if the conversion fails, otherwise nil.
func ToDynamicJSON(val any) (map[string]any, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any)
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Object builds a JSON object from alternating key/value pairs and returns it as
// a parsed gjson.Result, the type message metadata is stored as.
// Nil values are skipped so callers can pass optional fields. Errors are stored as their
// message, gjson.Result and json.RawMessage values are embedded as raw JSON.
//
// Parameters:
//   - kv: Alternating keys (strings) and values.
//
// Returns:
//   - gjson.Result: The object, or the zero result when every value was nil.
//   - error: An error if the arguments are unbalanced, a key is not a string or a value
//     cannot be marshaled.
func Object(kv ...any) (gjson.Result, error) {
	if len(kv)%2 != 0 {
		return gjson.Result{}, fmt.Errorf("jsonx: odd number of key/value arguments")
	}
	doc := []byte(`{}`)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return gjson.Result{}, fmt.Errorf("jsonx: key at %d is %T, not string", i, kv[i])
		}
		if kv[i+1] == nil {
			continue
		}
		var err error
		doc, err = setValue(doc, key, kv[i+1])
		if err != nil {
			return gjson.Result{}, err
		}
	}
	if string(doc) == `{}` {
		return gjson.Result{}, nil
	}
	return gjson.ParseBytes(doc), nil
}

func setValue(doc []byte, key string, value any) ([]byte, error) {
	switch v := value.(type) {
	case error:
		return sjson.SetBytes(doc, key, v.Error())
	case gjson.Result:
		return sjson.SetRawBytes(doc, key, []byte(v.Raw))
	case json.RawMessage:
		return sjson.SetRawBytes(doc, key, v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("jsonx: failed to marshal %q: %w", key, err)
		}
		return sjson.SetRawBytes(doc, key, b)
	}
}
