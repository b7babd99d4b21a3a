// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chaos

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vata/services/vata/chaos/profiles"
	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// =============================================================================
// Validation
// =============================================================================

// profileValidate is the validator instance for profiles.
var profileValidate *validator.Validate

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	profileValidate = validator.New()
	_ = profileValidate.RegisterValidation("identifier", validateIdentifier)
	_ = profileValidate.RegisterValidation("single_line", validateSingleLine)
}

// validateIdentifier accepts names usable in every supported language.
func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

// validateSingleLine rejects text that could break out of a line comment.
func validateSingleLine(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return !strings.ContainsAny(s, "\r\n") && !strings.Contains(s, "*/")
}

// =============================================================================
// Types
// =============================================================================

// Profile tunes how aggressively the transformer perturbs text.
type Profile struct {
	Name           string   `yaml:"name" json:"name" validate:"required"`
	Description    string   `yaml:"description" json:"description"`
	RenameProb     float64  `yaml:"rename_prob" json:"rename_prob" validate:"gte=0,lte=1"`
	CommentProb    float64  `yaml:"comment_prob" json:"comment_prob" validate:"gte=0,lte=1"`
	DeadCodeProb   float64  `yaml:"dead_code_prob" json:"dead_code_prob" validate:"gte=0,lte=1"`
	DecorationProb float64  `yaml:"decoration_prob" json:"decoration_prob" validate:"gte=0,lte=1"`
	Phrases        []string `yaml:"phrases" json:"phrases" validate:"required,min=1,dive,required,single_line"`
	Names          []string `yaml:"names" json:"names" validate:"required,min=1,dive,required,identifier"`
	Decorations    []string `yaml:"decorations" json:"decorations,omitempty" validate:"omitempty,dive,required,single_line"`
}

// Validate checks probabilities and pools.
//
// Outputs:
//
//	error - A *datatypes.ConfigurationError naming the first bad field.
func (p Profile) Validate() error {
	err := profileValidate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		if p.Name != "" {
			field = p.Name + "." + field
		}
		return datatypes.NewConfigurationError("profile."+field, fmt.Sprint(fe.Value()), "failed "+fe.Tag()+" check")
	}
	return datatypes.NewConfigurationError("profile", p.Name, err.Error())
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ProfileSet is an immutable collection of named profiles.
//
// Thread Safety: Safe for concurrent use.
type ProfileSet struct {
	byName map[string]Profile
	order  []string
}

// LoadProfiles loads the built-in profiles.
func LoadProfiles() (*ProfileSet, error) {
	return LoadProfilesFromYAML(profiles.Builtin)
}

// LoadProfilesFromYAML parses and validates a profile file.
//
// Description:
//
//	Every profile is validated. Duplicate names are rejected. The file
//	order is kept for Names.
//
// Outputs:
//
//	*ProfileSet - Ready to use.
//	error - Parse failure or *datatypes.ConfigurationError.
func LoadProfilesFromYAML(data []byte) (*ProfileSet, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, datatypes.NewConfigurationError("profiles", "", "no profiles defined")
	}
	set := &ProfileSet{byName: make(map[string]Profile, len(file.Profiles))}
	for _, p := range file.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set.byName[p.Name]; dup {
			return nil, datatypes.NewConfigurationError("profile.name", p.Name, "duplicate profile name")
		}
		set.byName[p.Name] = p
		set.order = append(set.order, p.Name)
	}
	return set, nil
}

// Get returns a profile by name.
//
// Outputs:
//
//	Profile - A copy; pools are copied so callers cannot alter the set.
//	error - *datatypes.ConfigurationError for unknown names.
func (s *ProfileSet) Get(name string) (Profile, error) {
	p, ok := s.byName[name]
	if !ok {
		known := append([]string(nil), s.order...)
		sort.Strings(known)
		return Profile{}, datatypes.NewConfigurationError("profile", name,
			"unknown profile (known: "+strings.Join(known, ", ")+")")
	}
	p.Phrases = append([]string(nil), p.Phrases...)
	p.Names = append([]string(nil), p.Names...)
	p.Decorations = append([]string(nil), p.Decorations...)
	return p, nil
}

// Names returns profile names in file order.
func (s *ProfileSet) Names() []string {
	return append([]string(nil), s.order...)
}

// All returns every profile in file order.
func (s *ProfileSet) All() []Profile {
	out := make([]Profile, 0, len(s.order))
	for _, name := range s.order {
		p, _ := s.Get(name)
		out = append(out, p)
	}
	return out
}
