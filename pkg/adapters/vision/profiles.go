package vision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Profile is one canned assessment the simulated analyzer can answer with.
// A profile with Failure set does not produce a report: analysis fails with
// that reason instead, which exercises the workflow's recovery path.
type Profile struct {
	Name                    string   `yaml:"name" json:"name"`
	Intensity               string   `yaml:"intensity" json:"intensity"`
	EstimatedCost           int64    `yaml:"estimated_cost" json:"estimated_cost"`
	IdentifiedItems         []string `yaml:"identified_items" json:"identified_items"`
	Summary                 string   `yaml:"summary" json:"summary"`
	StructuralIntegrityRisk bool     `yaml:"structural_integrity_risk" json:"structural_integrity_risk"`
	Failure                 string   `yaml:"failure,omitempty" json:"failure,omitempty"`
}

func (p Profile) report() (*domain.DamageReport, error) {
	intensity, err := domain.ParseSeverity(p.Intensity)
	if err != nil {
		return nil, domain.NewAnalysisError(fmt.Sprintf("profile %q is invalid", p.Name), err)
	}

	report := &domain.DamageReport{
		Intensity:               intensity,
		EstimatedCost:           p.EstimatedCost,
		IdentifiedItems:         p.IdentifiedItems,
		Summary:                 p.Summary,
		StructuralIntegrityRisk: p.StructuralIntegrityRisk,
	}
	if err := report.Validate(); err != nil {
		return nil, domain.NewAnalysisError(fmt.Sprintf("profile %q is invalid", p.Name), err)
	}
	return report, nil
}

// validate rejects profiles that could never produce a usable analysis.
func (p Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.Failure != "" {
		return nil
	}
	if _, err := p.report(); err != nil {
		return err
	}
	return nil
}

type profilesFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads a custom profile set from a YAML file:
//
//	profiles:
//	  - name: fender-bender
//	    intensity: Moderate
//	    estimated_cost: 3200
//	    identified_items: [front bumper, left headlamp]
//	    summary: Moderate front-end damage.
//	  - name: blurry-footage
//	    failure: evidence too blurry to assess
func LoadProfiles(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles file %s: %w", path, err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profiles file %s defines no profiles", path)
	}

	for _, p := range file.Profiles {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("profiles file %s: %w", path, err)
		}
	}
	return file.Profiles, nil
}

// builtinProfiles covers the interesting paths out of the box: an
// auto-approval, the exact threshold boundary, a manual review, a
// structural write-off and a failing analysis.
func builtinProfiles() []Profile {
	return []Profile{
		{
			Name:            "parking-scrape",
			Intensity:       "Low",
			EstimatedCost:   450,
			IdentifiedItems: []string{"rear quarter panel"},
			Summary:         "Superficial paint scrape along the rear quarter panel.",
		},
		{
			Name:            "fender-bender",
			Intensity:       "Moderate",
			EstimatedCost:   3200,
			IdentifiedItems: []string{"front bumper", "left headlamp"},
			Summary:         "Moderate front-end damage consistent with a low-speed collision.",
		},
		{
			Name:            "flooded-cabin",
			Intensity:       "Severe",
			EstimatedCost:   5000,
			IdentifiedItems: []string{"cabin electronics", "upholstery", "carpeting"},
			Summary:         "Water intrusion across the cabin floor with likely electrical damage.",
		},
		{
			Name:                    "rollover",
			Intensity:               "Catastrophic",
			EstimatedCost:           12000,
			IdentifiedItems:         []string{"roof panel", "windshield", "both side mirrors"},
			Summary:                 "Extensive body deformation consistent with a rollover.",
			StructuralIntegrityRisk: true,
		},
		{
			Name:    "blurry-footage",
			Failure: "evidence too blurry to assess",
		},
	}
}
