package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTerm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ascensor", "ascensor"},
		{"  Ascensor ", "ascensor"},
		{"Aire acondicionado", "aire_acondicionado"},
		{"aire-acondicionado", "aire_acondicionado"},
		{"Calefacción", "calefaccion"},
		{"Balcón", "balcon"},
		{"zona  comunitaria", "zona_comunitaria"},
		{"a/c", "a/c"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTerm(tt.input))
		})
	}
}

func TestFuzzyMatchKeyword(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"word", "piso luminoso y reformado", []string{"luminoso"}, true},
		{"accent", "ático Exterior", []string{"exterior"}, true},
		{"phrase", "busco una planta baja con patio", []string{"planta baja"}, true},
		{"phrase with punctuation", "planta-baja, cerca del metro", []string{"planta baja"}, true},
		{"no partial word", "interiorista", []string{"interior"}, false},
		{"any of several", "bright flat", []string{"luminoso", "bright"}, true},
		{"missing", "piso tranquilo", []string{"luminoso"}, false},
		{"empty keyword", "piso", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyMatchKeyword(tt.text, tt.keywords...))
		})
	}
}
