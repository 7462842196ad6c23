package models

import (
	"fmt"
	"strings"
)

// Department pairs a canonical department name with its storage partition.
type Department struct {
	Name         string `json:"name"`
	PartitionKey string `json:"partition_key"`
}

// DepartmentRegistry is an ordered, read-only set of departments.
type DepartmentRegistry struct {
	entries []Department
	byLower map[string]int
	byKey   map[string]int
}

// NewDepartmentRegistry validates entries and builds a registry preserving their order.
func NewDepartmentRegistry(entries []Department) (*DepartmentRegistry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("department registry is empty")
	}
	r := &DepartmentRegistry{
		entries: make([]Department, len(entries)),
		byLower: make(map[string]int, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	copy(r.entries, entries)
	for i, d := range r.entries {
		name := strings.TrimSpace(d.Name)
		if name == "" || strings.TrimSpace(d.PartitionKey) == "" {
			return nil, fmt.Errorf("department %d: name and partition key are required", i)
		}
		lower := strings.ToLower(name)
		if _, dup := r.byLower[lower]; dup {
			return nil, fmt.Errorf("duplicate department name %q", d.Name)
		}
		if _, dup := r.byKey[d.PartitionKey]; dup {
			return nil, fmt.Errorf("duplicate partition key %q", d.PartitionKey)
		}
		r.byLower[lower] = i
		r.byKey[d.PartitionKey] = i
	}
	return r, nil
}

// DefaultDepartmentRegistry returns the Tamil Nadu department list.
func DefaultDepartmentRegistry() *DepartmentRegistry {
	r, err := NewDepartmentRegistry(defaultDepartments)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns a copy of the registry entries in order.
func (r *DepartmentRegistry) All() []Department {
	out := make([]Department, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names lists canonical names in registry order.
func (r *DepartmentRegistry) Names() []string {
	out := make([]string, len(r.entries))
	for i, d := range r.entries {
		out[i] = d.Name
	}
	return out
}

// PartitionKeys lists partition keys in registry order.
func (r *DepartmentRegistry) PartitionKeys() []string {
	out := make([]string, len(r.entries))
	for i, d := range r.entries {
		out[i] = d.PartitionKey
	}
	return out
}

// Len reports the number of departments.
func (r *DepartmentRegistry) Len() int { return len(r.entries) }

// Contains reports whether name is an exact canonical name.
func (r *DepartmentRegistry) Contains(name string) bool {
	i, ok := r.byLower[strings.ToLower(name)]
	return ok && r.entries[i].Name == name
}

// Canonical resolves name case-insensitively to its canonical spelling.
func (r *DepartmentRegistry) Canonical(name string) (string, bool) {
	i, ok := r.byLower[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return r.entries[i].Name, true
}

// PartitionKey returns the partition of a department, matched case-insensitively.
func (r *DepartmentRegistry) PartitionKey(name string) (string, bool) {
	i, ok := r.byLower[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return r.entries[i].PartitionKey, true
}

// DepartmentForPartition maps a partition key back to its department name.
func (r *DepartmentRegistry) DepartmentForPartition(key string) (string, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return "", false
	}
	return r.entries[i].Name, true
}

var defaultDepartments = []Department{
	{"Adi Dravidar and Tribal Welfare Department", "petitions_adi_dravidar_tribal_welfare"},
	{"Agriculture and Farmers welfares Department", "petitions_agriculture_farmers_welfare"},
	{"Animal Husbandry and Dairying and Fisheries and Fishermen Welfare Department", "petitions_animal_husbandry_fisheries"},
	{"BC MBC and Minorities Welfare Department", "petitions_bc_mbc_minorities_welfare"},
	{"Co-operation Food and Consumer Protection Department", "petitions_cooperation_food_consumer_protection"},
	{"Commercial Taxes and Registration Department", "petitions_commercial_taxes_registration"},
	{"Energy Department", "petitions_energy"},
	{"Environment Climate Change and Forests Department", "petitions_environment_climate_forests"},
	{"Finance Department", "petitions_finance"},
	{"Handlooms Handicrafts Textiles and Khadi Department", "petitions_handlooms_handicrafts_textiles_khadi"},
	{"Health and Family Welfare Department", "petitions_health_family_welfare"},
	{"Higher Education Department", "petitions_higher_education"},
	{"Highways and Minor Ports Department", "petitions_highways_minor_ports"},
	{"Human Resources Management Department", "petitions_human_resources_management"},
	{"Home Prohibition and Excise Department", "petitions_home_prohibition_excise"},
	{"Housing and Urban Development Department", "petitions_housing_urban_development"},
	{"Industries Department", "petitions_industries"},
	{"Information Technology Department", "petitions_information_technology"},
	{"Labour Welfare and Skill Development Department", "petitions_labour_welfare_skill_development"},
	{"Law Department", "petitions_law"},
	{"Legislative Assembly Department", "petitions_legislative_assembly"},
	{"Micro Small and Medium Enterprises Department", "petitions_micro_small_medium_enterprises"},
	{"Municipal Administration and Water Supply Department", "petitions_municipal_admin_water_supply"},
	{"Public Elections Department", "petitions_public_elections"},
	{"Public Department", "petitions_public"},
	{"Public Works Department", "petitions_pwd"},
	{"Revenue and Disaster Management Department", "petitions_revenue_disaster_management"},
	{"Rural Development and Panchayat Raj Department", "petitions_rural_development_panchayat_raj"},
	{"School Education Department", "petitions_school_education"},
	{"Social Welfare and Women Empowerment Department", "petitions_social_welfare_women_empowerment"},
	{"Tamil Dev. and Information Department", "petitions_tamil_dev_information"},
	{"Tamil Nadu Water Supply and Drainage Board", "petitions_tn_water_supply_drainage_board"},
	{"Tourism Culture and Religious Endowments Department", "petitions_tourism_culture_religious_endowments"},
	{"Transport Department", "petitions_transport"},
	{"Welfare of Differently Abled Persons", "petitions_welfare_diff_abled_persons"},
	{"Youth Welfare and Sports Development Department", "petitions_youth_welfare_sports_development"},
	{"Water Resources Department", "petitions_water_resources"},
	{"Planning Development Department", "petitions_planning_development"},
	{"Special Programme Implementation", "petitions_special_programme_implementation"},
}
