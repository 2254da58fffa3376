// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import "fmt"

const (
	DefaultRulesetName = "default"
	LegacyRulesetName  = "legacy"
)

// Ruleset selects which structural checks the interpreter enforces.
type Ruleset struct {
	Name string `json:"name"`
	// ValidateNoDanglingNodes fails manifests that leave a bucket or an
	// address reservation unconsumed.
	ValidateNoDanglingNodes bool `json:"validateNoDanglingNodes"`
	// ValidateBucketProofLock fails manifests that consume a bucket while a
	// proof created from it is still alive. Both presets enable it.
	ValidateBucketProofLock bool `json:"validateBucketProofLock"`
}

func DefaultRuleset() Ruleset {
	return Ruleset{
		Name:                    DefaultRulesetName,
		ValidateNoDanglingNodes: true,
		ValidateBucketProofLock: true,
	}
}

// LegacyRuleset accepts manifests written before dangling checks existed.
func LegacyRuleset() Ruleset {
	return Ruleset{
		Name:                    LegacyRulesetName,
		ValidateNoDanglingNodes: false,
		ValidateBucketProofLock: true,
	}
}

// RulesetByName returns the preset called [name].
func RulesetByName(name string) (Ruleset, error) {
	switch name {
	case DefaultRulesetName, "":
		return DefaultRuleset(), nil
	case LegacyRulesetName:
		return LegacyRuleset(), nil
	default:
		return Ruleset{}, fmt.Errorf("%w: %q", ErrUnknownRuleset, name)
	}
}
