package ransio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kpfaulkner/rans-go/entropy"
	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

const dictionarySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["min", "max", "FrequencyTable"],
	"properties": {
		"min": {"type": "integer"},
		"max": {"type": "integer"},
		"FrequencyTable": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "integer", "minimum": 0, "maximum": 4294967295}
		}
	}
}`

// WriteDictionaryJSON writes d as an indented JSON document.
func WriteDictionaryJSON(w io.Writer, d entropy.Dictionary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// ReadDictionaryJSON reads and validates a dictionary document. The frequency table is taken
// as is; the caller rescales it if its total is not the wanted power of two.
func ReadDictionaryJSON(r io.Reader) (entropy.Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return entropy.Dictionary{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := validateDictionary(data); err != nil {
		return entropy.Dictionary{}, err
	}

	var d entropy.Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return entropy.Dictionary{}, fmt.Errorf("%w: %v", entropy.ErrFormat, err)
	}
	if len(d.FrequencyTable) != d.Max-d.Min+1 {
		return entropy.Dictionary{}, fmt.Errorf("%w: FrequencyTable has %d entries for range [%d, %d]", entropy.ErrFormat, len(d.FrequencyTable), d.Min, d.Max)
	}
	return d, nil
}

func validateDictionary(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(dictionarySchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", entropy.ErrFormat, err)
	}

	if !result.Valid() {
		var sb strings.Builder
		for _, description := range result.Errors() {
			sb.WriteString(fmt.Sprintf(" - %v", description))
		}
		return fmt.Errorf("%w: invalid dictionary:%s", entropy.ErrFormat, sb.String())
	}
	return nil
}

// SaveDictionary exports d to path.
func SaveDictionary(path string, d entropy.Dictionary) error {
	var buf bytes.Buffer
	if err := WriteDictionaryJSON(&buf, d); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Debugf("exported dictionary [%d, %d] to %s", d.Min, d.Max, path)
	return nil
}

// LoadDictionary imports a dictionary from path.
func LoadDictionary(path string) (entropy.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return entropy.Dictionary{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	d, err := ReadDictionaryJSON(f)
	if err != nil {
		return entropy.Dictionary{}, fmt.Errorf("reading dictionary %s: %w", path, err)
	}
	log.Debugf("imported dictionary [%d, %d] from %s", d.Min, d.Max, path)
	return d, nil
}
