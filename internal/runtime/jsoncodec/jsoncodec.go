// Package jsoncodec centralises JSON encoding so every component shares the
// same sonic configuration.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	enc := defaultConfig.NewEncoder(w)
	return enc.Encode(v)
}

func Decode(r io.Reader, v any) error {
	dec := defaultConfig.NewDecoder(r)
	return dec.Decode(v)
}

// UnmarshalObject decodes data into a generic JSON object. Returns false when
// the document is valid JSON but not an object.
func UnmarshalObject(data []byte) (map[string]any, bool, error) {
	var v any
	if err := Unmarshal(data, &v); err != nil {
		return nil, false, err
	}
	obj, ok := v.(map[string]any)
	return obj, ok, nil
}
