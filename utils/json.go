package utils

import "github.com/goccy/go-json"

// ToJSONString encodes v for string-valued storage.
func ToJSONString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSONString decodes a value previously written by ToJSONString.
func FromJSONString(s string, v interface{}) error {
	return json.Unmarshal([]byte(s), v)
}
