package props

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	coreprops "github.com/enerflow/orc/core/props"
)

// liquidHTF models a single-phase liquid heat-transfer fluid. Density is a
// quadratic fit in temperature; cp is constant over the envelope.
type liquidHTF struct {
	name       string
	tMin, tMax float64
	cp         float64 // J/(kg·K)
	rhoA       float64 // rho = rhoA + rhoB·T + rhoC·T²
	rhoB, rhoC float64
	antA       float64 // boiling guard: ln Psat = antA − antB/(T − antC)
	antB, antC float64
}

func (l *liquidHTF) density(t float64) float64 {
	return l.rhoA + l.rhoB*t + l.rhoC*t*t
}

// subcooled reports whether the liquid phase is stable at (T, P).
func (l *liquidHTF) subcooled(t, p float64) bool {
	return p > math.Exp(l.antA-l.antB/(t-l.antC))
}

var liquidHTFs = map[string]*liquidHTF{
	// Quadratic density fit valid 273–440 K; within ~0.5% of tabulated data.
	"Water": {
		name: "Water",
		tMin: 274.0,
		tMax: 440.0,
		cp:   4187.0,
		rhoA: 765.33,
		rhoB: 1.8142,
		rhoC: -0.0035,
		antA: 23.185,
		antB: 3814.0,
		antC: 46.0,
	},
}

// gasSpecies holds ideal-gas constants for flue-gas components.
type gasSpecies struct {
	cp       float64 // J/(kg·K)
	gasConst float64 // J/(kg·K)
}

var flueGasSpecies = map[string]gasSpecies{
	"CO2":            {cp: 846.0, gasConst: 188.9},
	"Water":          {cp: 1996.0, gasConst: 461.5},
	"Nitrogen":       {cp: 1040.0, gasConst: 296.8},
	"Oxygen":         {cp: 918.0, gasConst: 259.8},
	"CarbonMonoxide": {cp: 1040.0, gasConst: 296.8},
	"SulfurDioxide":  {cp: 640.0, gasConst: 129.8},
}

var mixtureRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)\[([0-9.eE+-]+)\]$`)

// gasMixture is an ideal mixture of flue-gas species built from an
// identifier of the form "CO2[0.11]&Water[0.20]&Nitrogen[0.69]"
// where the bracketed values are mass fractions.
type gasMixture struct {
	cp       float64
	gasConst float64
}

func parseGasMixture(id string) (*gasMixture, error) {
	parts := strings.Split(id, "&")
	var mix gasMixture
	var total float64
	for _, part := range parts {
		m := mixtureRe.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("malformed mixture component %q", part)
		}
		sp, ok := flueGasSpecies[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown mixture species %q", m[1])
		}
		frac, err := strconv.ParseFloat(m[2], 64)
		if err != nil || frac <= 0 {
			return nil, fmt.Errorf("invalid fraction for %q", m[1])
		}
		mix.cp += frac * sp.cp
		mix.gasConst += frac * sp.gasConst
		total += frac
	}
	if math.Abs(total-1.0) > 0.01 {
		return nil, fmt.Errorf("mixture fractions sum to %.3f, want 1.0", total)
	}
	return &mix, nil
}

// MixtureID folds a species mass-fraction map into the oracle's mixture
// identifier. Species names follow the oracle naming ("Water", "Nitrogen").
func MixtureID(composition map[string]float64) (string, error) {
	if len(composition) == 0 {
		return "", fmt.Errorf("empty gas composition")
	}
	names := make([]string, 0, len(composition))
	for name := range composition {
		if _, ok := flueGasSpecies[name]; !ok {
			return "", fmt.Errorf("%w: mixture species %s", coreprops.ErrUnknownFluid, name)
		}
		names = append(names, name)
	}
	// deterministic order keeps identifiers stable across runs
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s[%g]", name, composition[name])
	}
	return strings.Join(parts, "&"), nil
}
