package main

import (
	_ "embed"
	"fmt"

	"tomgalvin.uk/tsclabel/internal/preset"
)

//go:embed resources/sql/schema.sql
var schema string

func NewRepository(path string) (*preset.Repository, error) {
	r, err := preset.Open(path, schema)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open preset database %s:\n%w", path, err)
	}
	return r, nil
}
