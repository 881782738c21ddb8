/*
Package dot_bracket_parser parses dot-bracket and hard-constraint strings
into a pair table: for each position, either the index of its forced
partner or a sentinel meaning "unpaired" or "unconstrained".

This mirrors the bracket-matching approach used throughout this module's
secondary-structure parsing, extended to the small constraint alphabet the
partition-function engine accepts as a hard-constraint input (see
partition.NewHardConstraint in partition/constraint.go for how a pair table
here becomes a per-cell decomposition mask).
*/
package dot_bracket_parser

import (
	"fmt"
)

// Unconstrained marks a position with no hard constraint ('.').
const Unconstrained = -1

// ForcedUnpaired marks a position that must remain unpaired ('x').
const ForcedUnpaired = -2

// ForcedPaired marks a position that must pair with something, but whose
// partner isn't pinned down by this string alone ('|').
const ForcedPaired = -3

// PairTable parses a dot-bracket string using only '.', '(', and ')' and
// returns, for each index, the index of its pair partner or -1 if unpaired.
//
// Example:
//
//	Index:   0  1  2  3  4  5  6  7  8  9
//	Input:   .  .  (  (  .  .  )  )  .  .
//	Output: [-1 -1  7  6 -1 -1  3  2 -1 -1]
func PairTable(structure string) ([]int, error) {
	lenStructure := len(structure)
	pairedWith := make([]int, lenStructure)

	var openBracket, closeBracket byte = '(', ')'
	openBracketIdxStack := make([]int, lenStructure)
	stackIdx := 0

	for i := 0; i < lenStructure; i++ {
		switch structure[i] {
		case openBracket:
			openBracketIdxStack[stackIdx] = i
			stackIdx++
		case closeBracket:
			stackIdx--
			if stackIdx < 0 {
				return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c' found at index %v",
					structure, openBracket, closeBracket, i)
			}
			openBracketIdx := openBracketIdxStack[stackIdx]
			pairedWith[i] = openBracketIdx
			pairedWith[openBracketIdx] = i
		default:
			pairedWith[i] = -1
		}
	}

	if stackIdx != 0 {
		return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c': %v unclosed",
			structure, openBracket, closeBracket, stackIdx)
	}

	return pairedWith, nil
}

// ParseHardConstraint parses a ViennaRNA-style hard-constraint string and
// returns, for each index, one of:
//   - the index of the position it is forced to pair with ('(' / ')' pairs),
//   - ForcedUnpaired for 'x',
//   - ForcedPaired for '|' (must pair, partner unconstrained),
//   - Unconstrained for '.'.
//
// Supported alphabet: '.', 'x', '|', '(', ')'. Any other byte is an error.
func ParseHardConstraint(constraint string) ([]int, error) {
	lenConstraint := len(constraint)
	result := make([]int, lenConstraint)

	var openBracket, closeBracket byte = '(', ')'
	openBracketIdxStack := make([]int, lenConstraint)
	stackIdx := 0

	for i := 0; i < lenConstraint; i++ {
		switch constraint[i] {
		case '.':
			result[i] = Unconstrained
		case 'x':
			result[i] = ForcedUnpaired
		case '|':
			result[i] = ForcedPaired
		case openBracket:
			openBracketIdxStack[stackIdx] = i
			stackIdx++
		case closeBracket:
			stackIdx--
			if stackIdx < 0 {
				return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c' found at index %v",
					constraint, openBracket, closeBracket, i)
			}
			openBracketIdx := openBracketIdxStack[stackIdx]
			result[i] = openBracketIdx
			result[openBracketIdx] = i
		default:
			return nil, fmt.Errorf("invalid hard-constraint character %q at index %v; expected one of '.','x','|','(',')'",
				constraint[i], i)
		}
	}

	if stackIdx != 0 {
		return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c': %v unclosed",
			constraint, openBracket, closeBracket, stackIdx)
	}

	return result, nil
}

// EnsureValidLength returns an error if the hard-constraint string's length
// doesn't match the sequence length it is meant to annotate.
func EnsureValidLength(constraint string, sequenceLength int) error {
	if len(constraint) != sequenceLength {
		return fmt.Errorf("hard-constraint string has length %v, expected %v to match the sequence",
			len(constraint), sequenceLength)
	}
	return nil
}
