package config

import (
	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// FieldMap loads the configured header dictionary, or the built-in one when
// no file is set.
func (c CatalogConfig) FieldMap() (*catalog.FieldMap, error) {
	if c.FieldMapFile == "" {
		return catalog.DefaultFieldMap(), nil
	}
	return catalog.LoadFieldMapFile(c.FieldMapFile)
}

// Key parses the configured match key.
func (c CatalogConfig) Key() (catalog.MatchKey, error) {
	return catalog.ParseMatchKey(c.MatchKey)
}

// Policy parses the configured category label policy.
func (c CatalogConfig) Policy() (catalog.LabelPolicy, error) {
	return catalog.ParseLabelPolicy(c.LabelPolicy)
}
