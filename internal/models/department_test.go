package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDepartmentRegistry(t *testing.T) {
	r := DefaultDepartmentRegistry()
	require.Equal(t, 39, r.Len())
	assert.Equal(t, "Adi Dravidar and Tribal Welfare Department", r.Names()[0])
	assert.Equal(t, "petitions_special_programme_implementation", r.PartitionKeys()[38])

	key, ok := r.PartitionKey("public works department")
	require.True(t, ok)
	assert.Equal(t, "petitions_pwd", key)

	name, ok := r.Canonical("  FINANCE department ")
	require.True(t, ok)
	assert.Equal(t, "Finance Department", name)

	assert.True(t, r.Contains("Finance Department"))
	assert.False(t, r.Contains("finance department"))
	assert.False(t, r.Contains("General"))

	dept, ok := r.DepartmentForPartition("petitions_energy")
	require.True(t, ok)
	assert.Equal(t, "Energy Department", dept)
}

func TestNewDepartmentRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewDepartmentRegistry([]Department{{"Energy", "a"}, {"energy", "b"}})
	assert.Error(t, err)

	_, err = NewDepartmentRegistry([]Department{{"Energy", "a"}, {"Law", "a"}})
	assert.Error(t, err)

	_, err = NewDepartmentRegistry(nil)
	assert.Error(t, err)
}

func TestRegistryAccessorsReturnCopies(t *testing.T) {
	r := DefaultDepartmentRegistry()
	names := r.Names()
	names[0] = "mutated"
	all := r.All()
	all[1].Name = "mutated"
	assert.Equal(t, "Adi Dravidar and Tribal Welfare Department", r.Names()[0])
	assert.Equal(t, "Agriculture and Farmers welfares Department", r.All()[1].Name)
}
