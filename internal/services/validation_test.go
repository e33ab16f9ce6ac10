package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dtindex/internal/errors"
	"dtindex/pkg/contracts/domain"
)

func TestValidator_FieldMessages(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(domain.FilterSpec{}))
	require.NoError(t, v.Struct(domain.FilterSpec{EntityID: "600519", YearFrom: 2019, YearTo: 2021}))

	err := v.Struct(domain.FilterSpec{EntityID: "60 05", YearFrom: 1800, YearTo: 2300})
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)

	details, ok := apiErr.Details.(apperrors.ValidationErrors)
	require.True(t, ok, "details are %T", apiErr.Details)

	byField := make(map[string]string, len(details.Errors))
	for _, d := range details.Errors {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "entity_id must be a company code", byField["entity_id"])
	assert.Equal(t, "year_from must be at least 1900", byField["year_from"])
	assert.Equal(t, "year_to must be at most 2200", byField["year_to"])
}

func TestIsEntityIDCharacters(t *testing.T) {
	v := NewValidator()
	for id, valid := range map[string]bool{
		"600519":    true,
		"SH.600519": true,
		"A-1":       true,
		"数字":        false,
		"a b":       false,
	} {
		err := v.Struct(domain.FilterSpec{EntityID: id})
		assert.Equal(t, valid, err == nil, id)
	}
}
