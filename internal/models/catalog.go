package models

import "fmt"

// Variant names a feature catalog.
type Variant string

const (
	VariantCompact Variant = "compact"
	VariantFull    Variant = "full"
)

// CompactFeatures is the 10-measurement form.
var CompactFeatures = Catalog{
	{Key: "radius_mean", Label: "Radius Mean", Min: 6, Max: 30, Step: 0.1, Default: 14.0},
	{Key: "texture_mean", Label: "Texture Mean", Min: 9, Max: 40, Step: 0.1, Default: 19.0},
	{Key: "perimeter_mean", Label: "Perimeter Mean", Min: 40, Max: 190, Step: 0.1, Default: 90.0},
	{Key: "area_mean", Label: "Area Mean", Min: 140, Max: 2500, Step: 1, Default: 650.0},
	{Key: "smoothness_mean", Label: "Smoothness Mean", Min: 0.05, Max: 0.17, Step: 0.001, Default: 0.1},
	{Key: "concavity_mean", Label: "Concavity Mean", Min: 0, Max: 0.43, Step: 0.001, Default: 0.1},
	{Key: "concave_points_mean", Label: "Concave Points Mean", Min: 0, Max: 0.2, Step: 0.001, Default: 0.05},
	{Key: "radius_worst", Label: "Radius Worst", Min: 7, Max: 36, Step: 0.1, Default: 16.0},
	{Key: "perimeter_worst", Label: "Perimeter Worst", Min: 50, Max: 251, Step: 0.1, Default: 110.0},
	{Key: "area_worst", Label: "Area Worst", Min: 185, Max: 4254, Step: 1, Default: 850.0},
}

// FullFeatures is the 30-measurement form: mean, standard error and worst
// value of each of the ten nucleus characteristics.
var FullFeatures = buildCatalog([]measurement{
	// mean
	{"radius_mean", 6, 30, 0.1, 14.0},
	{"texture_mean", 9, 40, 0.1, 19.0},
	{"perimeter_mean", 40, 190, 0.1, 90.0},
	{"area_mean", 140, 2500, 1, 650.0},
	{"smoothness_mean", 0.05, 0.17, 0.001, 0.1},
	{"compactness_mean", 0.01, 0.35, 0.001, 0.104},
	{"concavity_mean", 0, 0.43, 0.001, 0.1},
	{"concave_points_mean", 0, 0.2, 0.001, 0.05},
	{"symmetry_mean", 0.1, 0.31, 0.001, 0.181},
	{"fractal_dimension_mean", 0.049, 0.098, 0.0001, 0.0628},
	// standard error
	{"radius_se", 0.1, 2.9, 0.01, 0.405},
	{"texture_se", 0.36, 4.9, 0.01, 1.217},
	{"perimeter_se", 0.75, 22, 0.01, 2.866},
	{"area_se", 6, 543, 0.1, 40.34},
	{"smoothness_se", 0.0017, 0.032, 0.0001, 0.007},
	{"compactness_se", 0.002, 0.136, 0.0001, 0.0255},
	{"concavity_se", 0, 0.4, 0.0001, 0.0319},
	{"concave_points_se", 0, 0.053, 0.0001, 0.0118},
	{"symmetry_se", 0.0078, 0.079, 0.0001, 0.0205},
	{"fractal_dimension_se", 0.0008, 0.03, 0.0001, 0.0038},
	// worst
	{"radius_worst", 7, 36, 0.1, 16.0},
	{"texture_worst", 12, 50, 0.1, 25.68},
	{"perimeter_worst", 50, 251, 0.1, 110.0},
	{"area_worst", 185, 4254, 1, 850.0},
	{"smoothness_worst", 0.07, 0.223, 0.001, 0.132},
	{"compactness_worst", 0.027, 1.06, 0.001, 0.254},
	{"concavity_worst", 0, 1.26, 0.001, 0.272},
	{"concave_points_worst", 0, 0.291, 0.001, 0.115},
	{"symmetry_worst", 0.15, 0.67, 0.001, 0.29},
	{"fractal_dimension_worst", 0.055, 0.21, 0.0001, 0.0839},
})

type measurement struct {
	key                  string
	min, max, step, dflt float64
}

func buildCatalog(ms []measurement) Catalog {
	c := make(Catalog, len(ms))
	for i, m := range ms {
		c[i] = FeatureSpec{
			Key:     m.key,
			Label:   FeatureLabel(m.key),
			Min:     m.min,
			Max:     m.max,
			Step:    m.step,
			Default: m.dflt,
		}
	}
	return c
}

// CatalogFor resolves a variant name. An empty name selects the compact form.
func CatalogFor(v Variant) (Catalog, error) {
	switch v {
	case VariantCompact, "":
		return CompactFeatures, nil
	case VariantFull:
		return FullFeatures, nil
	default:
		return nil, fmt.Errorf("unknown feature variant %q", v)
	}
}
