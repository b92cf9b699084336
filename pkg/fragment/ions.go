package fragment

import (
	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

// Neutral mass shifts added to the summed residue (plus modification) masses of a fragment.
var massShifts = [...]float64{
	A:            -(core.MassC + core.MassO),
	AStar:        -(core.MassC + core.MassO + core.MassN + 3*core.MassH),
	ADegree:      -(core.MassC + 2*core.MassO + 2*core.MassH),
	B:            0,
	BAmmoniaLoss: -(core.MassN + 3*core.MassH),
	BWaterLoss:   -(2*core.MassH + core.MassO),
	C:            core.MassN + 3*core.MassH,
	X:            core.MassC + 2*core.MassO,
	Y:            2*core.MassH + core.MassO,
	YAmmoniaLoss: core.MassO - core.MassH - core.MassN,
	YWaterLoss:   0,
	ZDot:         core.MassO - core.MassN - core.MassH + core.ElectronMass + core.ProtonMass,
	ZPlusOne:     core.MassO + core.MassH - core.MassN,
	M:            0,
	D:            0,
}

// MassShift returns the neutral mass shift of the ion series.
func (t ProductType) MassShift() float64 {
	return massShifts[t]
}

// Terminus returns which end of the peptide the series retains.
func (t ProductType) Terminus() Terminus {
	switch t {
	case A, AStar, ADegree, B, BAmmoniaLoss, BWaterLoss, C:
		return TerminusN
	case X, Y, YAmmoniaLoss, YWaterLoss, ZDot, ZPlusOne:
		return TerminusC
	case M:
		return TerminusBoth
	}
	return TerminusNone
}

var (
	nTerminalTypes = []ProductType{A, AStar, ADegree, B, BAmmoniaLoss, BWaterLoss, C}
	cTerminalTypes = []ProductType{X, Y, YAmmoniaLoss, YWaterLoss, ZDot, ZPlusOne}
)

var productsFromDissociation = map[core.DissociationType][]ProductType{
	core.DissociationUnknown: {},
	core.CID:                 {B, Y},
	core.LowCID:              {B, Y, AStar, BAmmoniaLoss, YAmmoniaLoss, ADegree, BWaterLoss, YWaterLoss},
	core.IRMPD:               {B, Y},
	core.ECD:                 {C, Y, ZDot},
	core.PQD:                 {},
	core.ETD:                 {C, Y, ZDot},
	core.HCD:                 {B, Y},
	core.AnyActivationType:   {B, Y},
	core.EThcD:               {B, Y, C, ZDot},
	core.Custom:              {},
	core.ISCID:               {},
}

// ProductTypes returns the ion series produced by a dissociation type.
func ProductTypes(dt core.DissociationType) []ProductType {
	return productsFromDissociation[dt]
}

// Per-dissociation N- and C-terminal series in canonical order, built once from
// productsFromDissociation.
var terminusProducts = func() map[core.DissociationType][2][]ProductType {
	tables := make(map[core.DissociationType][2][]ProductType, len(productsFromDissociation))
	for dt, produced := range productsFromDissociation {
		tables[dt] = [2][]ProductType{
			orderedSubset(nTerminalTypes, produced),
			orderedSubset(cTerminalTypes, produced),
		}
	}
	return tables
}()

func orderedSubset(ordered, produced []ProductType) []ProductType {
	var out []ProductType
	for _, t := range ordered {
		for _, p := range produced {
			if p == t {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// TerminusProductTypes returns the ion series of dt that retain the given terminus, in
// canonical series order. TerminusBoth is not a single terminus and yields nothing.
// The returned slice is shared and must not be modified.
func TerminusProductTypes(dt core.DissociationType, term Terminus) []ProductType {
	switch term {
	case TerminusN:
		return terminusProducts[dt][0]
	case TerminusC:
		return terminusProducts[dt][1]
	}
	return nil
}
