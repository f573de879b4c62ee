package labels

import (
	"testing"

	"session-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RoleSpecificLabel(t *testing.T) {
	table := Table{
		"pending": {
			Labels:   map[string]string{"expert": "En attente de réponse", "default": "En attente"},
			Variants: map[string]string{"expert": "info", "default": "secondary"},
		},
	}

	r := Resolve(table, "pending", domain.RoleExpert)

	assert.Equal(t, "En attente de réponse", r.Label)
	assert.Equal(t, "info", r.Variant)
}

func TestResolve_FallsBackToDefaultLabel(t *testing.T) {
	table := Table{
		"interview_scheduled": {
			Labels:  map[string]string{"expert": "Entretien prévu"},
			Variant: "info",
		},
	}

	// Company has no entry: label falls through to Unknown (no default
	// either), variant to the shared value.
	r := Resolve(table, "interview_scheduled", domain.RoleCompany)

	assert.Equal(t, UnknownLabel, r.Label)
	assert.Equal(t, "info", r.Variant)
}

func TestResolve_SharedVariantShape(t *testing.T) {
	table := Table{
		"awarded": {
			Labels:  map[string]string{"default": "Attribué"},
			Variant: "primary",
		},
	}

	r := Resolve(table, "awarded", domain.RoleAdmin)

	assert.Equal(t, "Attribué", r.Label)
	assert.Equal(t, "primary", r.Variant)
}

func TestResolve_UnmappedStatus(t *testing.T) {
	table := Table{}

	r := Resolve(table, "does_not_exist", domain.RoleExpert)

	assert.Equal(t, UnknownLabel, r.Label)
	assert.Equal(t, DefaultVariant, r.Variant)
}

func TestResolve_EmptyVariantsFallBackToSecondary(t *testing.T) {
	table := Table{
		"interview_scheduled": {
			Labels: map[string]string{"expert": "Entretien prévu"},
		},
	}

	r := Resolve(table, "interview_scheduled", domain.RoleCompany)

	assert.Equal(t, UnknownLabel, r.Label)
	assert.Equal(t, DefaultVariant, r.Variant)
}

func TestResolve_EmptyRoleDegradesToDefaults(t *testing.T) {
	table := Table{
		"pending": {
			Labels:   map[string]string{"expert": "En attente de réponse", "default": "En attente"},
			Variants: map[string]string{"expert": "info", "default": "secondary"},
		},
	}

	// Unauthenticated or not-yet-resolved viewer.
	r := Resolve(table, "pending", "")

	assert.Equal(t, "En attente", r.Label)
	assert.Equal(t, "secondary", r.Variant)
}

func TestResolve_EmptyRoleNeverMatchesEmptyKey(t *testing.T) {
	// A table with a literal "" key must not leak to role-less viewers.
	table := Table{
		"pending": {
			Labels: map[string]string{"": "oops", "default": "En attente"},
		},
	}

	r := Resolve(table, "pending", "")

	assert.Equal(t, "En attente", r.Label)
}

func TestLoad_EmbeddedCatalog(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	for _, name := range []string{"ao_status", "application_status", "interview_status"} {
		_, found := catalog.Domain(name)
		assert.True(t, found, "missing domain %s", name)
	}

	table, _ := catalog.Domain("interview_status")
	r := Resolve(table, "interview_scheduled", domain.RoleExpert)
	assert.Equal(t, "Entretien prévu", r.Label)

	r = Resolve(table, "interview_scheduled", domain.RoleCompany)
	assert.Equal(t, "Entretien planifié", r.Label)
	assert.Equal(t, "info", r.Variant)
}

func TestLoad_UnknownDomain(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	_, found := catalog.Domain("payroll_status")
	assert.False(t, found)
}

func TestValidate_RejectsUnknownVariant(t *testing.T) {
	bad := Catalog{
		"ao_status": Table{
			"draft": {Variant: "sparkly"},
		},
	}

	assert.Error(t, validate(bad))
}
