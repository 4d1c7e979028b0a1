// Package variables is C6: the fixed mapping between ACS variable
// codes and their human-readable names, used to label EnrichedRow
// columns, grounded on formatters.py's variable_names table.
package variables

import (
	"regexp"

	"github.com/socialmapper/socialmapper/internal/types"
)

// acsCodePattern matches a well-formed ACS detailed-table variable
// code, e.g. "B01003_001E".
var acsCodePattern = regexp.MustCompile(`^[A-Z][0-9]{5}_[0-9]{3}[A-Z]$`)

// humanNames maps the common ACS 5-year detailed-table variable codes
// this module names by default to a readable column label.
var humanNames = map[string]string{
	"B01003_001E": "Total Population",
	"B19013_001E": "Median Household Income",
	"B25077_001E": "Median Home Value",
	"B15003_022E": "Bachelor's Degree Holders",
	"B08301_021E": "Public Transit Users",
	"B17001_002E": "Population in Poverty",
}

// HumanName returns the human-readable label for a variable code,
// falling back to the code itself when it isn't in the fixed mapping
// (an operator-supplied custom variable).
func HumanName(code string) string {
	if name, ok := humanNames[code]; ok {
		return name
	}
	return code
}

// CodeForHumanName reverse-looks-up a variable code from its human
// name (case-sensitive, matching the fixed table's labels exactly).
// Inputs that are already a variable code, or that don't match any
// known human name, are returned unchanged — the caller is expected to
// be naming a custom ACS variable directly.
func CodeForHumanName(nameOrCode string) string {
	for code, name := range humanNames {
		if name == nameOrCode {
			return code
		}
	}
	return nameOrCode
}

// Validate reports whether x is recognized — either a known human name,
// a known variable code, or a string matching the ACS-code shape — so
// callers can reject a typo'd variable before spending a request on it.
func Validate(x string) bool {
	if _, ok := humanNames[x]; ok {
		return true
	}
	for _, name := range humanNames {
		if name == x {
			return true
		}
	}
	return acsCodePattern.MatchString(x)
}

// ResolveNames normalizes a mixed list of human names and variable
// codes (as accepted in AnalysisOptions.CensusVariables) down to
// variable codes.
func ResolveNames(namesOrCodes []string) []string {
	codes := make([]string, len(namesOrCodes))
	for i, v := range namesOrCodes {
		codes[i] = CodeForHumanName(v)
	}
	return codes
}

// Resolve builds CensusVariable records for a list of codes.
func Resolve(codes []string) []types.CensusVariable {
	result := make([]types.CensusVariable, len(codes))
	for i, code := range codes {
		result[i] = types.CensusVariable{Code: code, HumanName: HumanName(code)}
	}
	return result
}

// DefaultVariables is the variable set used when the caller doesn't
// specify one, matching the original's getting_started DEFAULT_CENSUS_VARS
// population/income pairing.
var DefaultVariables = []string{"B01003_001E", "B19013_001E"}
