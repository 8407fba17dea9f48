// Package relevance scores articles against a user interest profile.
package relevance

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Interest is one weighted keyword group.
type Interest struct {
	Keywords []string `mapstructure:"keywords" json:"keywords"`
	Weight   float64  `mapstructure:"weight" json:"weight"`
}

// Profile is a named set of interest groups.
type Profile struct {
	Name      string     `mapstructure:"name" json:"name"`
	Interests []Interest `mapstructure:"interests" json:"interests"`
}

// LoadProfile reads a profile from a YAML or JSON file. Profile errors are
// configuration errors and surface to the caller before any crawl starts.
func LoadProfile(path string) (*Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	profile := &Profile{}
	if err := v.Unmarshal(profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	for i, interest := range profile.Interests {
		if len(interest.Keywords) == 0 {
			return nil, fmt.Errorf("profile %s: interest group %d has no keywords", path, i)
		}
		if interest.Weight == 0 {
			profile.Interests[i].Weight = 1.0
		}
	}
	return profile, nil
}

// ParseInterests expands the shorthand interests string "AI, rust,
// skateboarding" into one weight-1.0 group per comma-separated token.
func ParseInterests(shorthand string) *Profile {
	profile := &Profile{}
	for _, token := range strings.Split(shorthand, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		profile.Interests = append(profile.Interests, Interest{
			Keywords: []string{token},
			Weight:   1.0,
		})
	}
	return profile
}
