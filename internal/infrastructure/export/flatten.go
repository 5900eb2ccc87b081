package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type leaf struct {
	Path  string
	Value any
}

// flatten walks a JSON object in document order and returns its scalar leaves.
// Object keys join with "." and array items are addressed as "[i]".
func flatten(raw []byte) ([]leaf, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out []leaf
	if err := walk(dec, "", &out); err != nil {
		return nil, fmt.Errorf("flatten transformed data: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("flatten transformed data: trailing data")
	}
	return out, nil
}

func walk(dec *json.Decoder, path string, out *[]leaf) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				if err := walk(dec, joinKey(path, key), out); err != nil {
					return err
				}
			}
		case '[':
			for i := 0; dec.More(); i++ {
				if err := walk(dec, path+"["+strconv.Itoa(i)+"]", out); err != nil {
					return err
				}
			}
		}
		_, err := dec.Token()
		return err
	case json.Number:
		if f, err := v.Float64(); err == nil {
			*out = append(*out, leaf{Path: path, Value: f})
		} else {
			*out = append(*out, leaf{Path: path, Value: v.String()})
		}
	case nil:
		*out = append(*out, leaf{Path: path, Value: ""})
	default:
		*out = append(*out, leaf{Path: path, Value: v})
	}
	return nil
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
