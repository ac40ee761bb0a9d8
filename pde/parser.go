package pde

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var normalizer = strings.NewReplacer(" ", "", "_", "")

// ParseOperator parses a compact differential-operator descriptor into a
// Form over numDims coordinates. The grammar is
//
//	d[<order>]<coords>
//
// where <order> is a single digit (default 1, at most 2) and <coords> is
// one of:
//
//	a coordinate letter            "dx", "d2t"     x→0, y→1, z→2, t→numDims-1
//	a letter plus a digit index    "dx3", "d2x0"   argument index taken literally
//	two coordinate letters         "dxy", "d2xt"   a coordinate pair
//	two letter+digit groups        "d2x5x8"        explicit index pair (order 2)
//
// Order 1 yields a one-hot (or, for pairs, two-hot) D1 vector; order 2
// yields a D2 matrix with a single unit entry at (i, j) — mixed partials
// are not symmetrized. When a two-character suffix is ambiguous, the
// numeric-index reading is attempted first and the letter-pair reading is
// the fallback.
//
// Whitespace and underscores are stripped before parsing. Anything
// outside the shapes above is rejected, not guessed.
func ParseOperator(op string, numDims int) (*Form, error) {
	if numDims < 1 {
		return nil, errors.Wrapf(ErrConfig, "operator %q parsed over %d coordinates", op, numDims)
	}
	s := normalizer.Replace(op)
	if !strings.HasPrefix(s, "d") {
		return nil, errors.Wrapf(ErrParse, "%q: operators must start with 'd'", op)
	}

	order := 1
	prefixLen := 1
	if len(s) > 1 {
		if o, err := strconv.Atoi(s[1:2]); err == nil {
			order = o
			prefixLen = 2
		}
	}
	if order > 2 {
		return nil, errors.Wrapf(ErrParse, "%q: derivatives of order %d are not supported", op, order)
	}
	if order < 1 {
		return nil, errors.Wrapf(ErrParse, "%q: derivatives of order %d are not supported", op, order)
	}

	coords := map[byte]int{'x': 0, 'y': 1, 'z': 2, 't': numDims - 1}
	variables := s[prefixLen:]

	var i, j int
	pair := false
	switch len(variables) {
	case 1: // "dx", "d2t"
		ci, ok := coords[variables[0]]
		if !ok {
			return nil, errors.Wrapf(ErrParse, "%q: cannot parse coordinate from %q", op, variables)
		}
		i = ci
		if order == 2 { // pure second partial: duplicate onto the diagonal
			j, pair = ci, true
		}
	case 2: // "dx3" or "dxy": numeric index first, letter pair as fallback
		if k, err := strconv.Atoi(variables[1:]); err == nil {
			i = k
			if order == 2 {
				j, pair = k, true
			}
		} else {
			ci, oki := coords[variables[0]]
			cj, okj := coords[variables[1]]
			if !oki || !okj {
				return nil, errors.Wrapf(ErrParse, "%q: cannot parse coordinate pair from %q", op, variables)
			}
			i, j, pair = ci, cj, true
		}
	case 4: // "d2x5x8"
		if order != 2 {
			return nil, errors.Wrapf(ErrParse, "%q: explicit index pairs require order 2", op)
		}
		ci, erri := strconv.Atoi(string(variables[1]))
		cj, errj := strconv.Atoi(string(variables[3]))
		if erri != nil || errj != nil {
			return nil, errors.Wrapf(ErrParse, "%q: cannot parse coordinate indices from %q", op, variables)
		}
		i, j, pair = ci, cj, true
	default:
		return nil, errors.Wrapf(ErrParse, "%q: cannot parse coordinates from %q", op, variables)
	}

	if i < 0 || i >= numDims || (pair && (j < 0 || j >= numDims)) {
		return nil, errors.Wrapf(ErrParse, "%q: coordinate index out of range for %d coordinates", op, numDims)
	}

	form := &Form{}
	if order == 1 {
		form.D1 = make([]Coeff, numDims)
		form.D1[i] = Const(1)
		if pair {
			form.D1[j] = Const(1)
		}
	} else {
		form.D2 = make([][]Coeff, numDims)
		for r := range form.D2 {
			form.D2[r] = make([]Coeff, numDims)
		}
		form.D2[i][j] = Const(1)
	}
	return form, nil
}
