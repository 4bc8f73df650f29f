package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	for in, want := range map[string]string{
		"ab 123":    "AB123",
		" AB-123 ":  "AB123",
		"ab\t12-3":  "AB123",
		"AB123":     "AB123",
		"aa 111 bb": "AA111BB",
		"":          "",
	} {
		assert.Equal(t, want, normalizePlate(in), "%q", in)
	}
}
