package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeRawRepository parses a RawRepository from YAML or JSON.
func DecodeRawRepository(data []byte) (RawRepository, error) {
	var raw RawRepository
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RawRepository{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if err := raw.Repository.Validate(); err != nil {
		return RawRepository{}, err
	}
	return raw, nil
}
