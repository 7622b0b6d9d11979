/*
Copyright © 2025 the HeatRec authors.
This file is part of HeatRec.

HeatRec is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

HeatRec is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with HeatRec.  If not, see <http://www.gnu.org/licenses/>.
*/

package heatrec

import "fmt"

// BranchSpec describes one pipe run to be sized: a branch from a
// compressor to the collection header, or the header itself.
type BranchSpec struct {
	ID       string
	From, To string
	Length   float64 `desc:"Straight pipe length" units:"m"`
	Flow     float64 `desc:"Design flow" units:"m³/h"`
	Fittings map[string]int
}

// NetworkConfig holds the sizing constraints for the piping network.
type NetworkConfig struct {
	Material       string  `desc:"Pipe material, for roughness lookup"`
	TargetVelocity float64 `desc:"Preferred flow velocity" units:"m/s"`
	MaxVelocity    float64 `desc:"Maximum allowable velocity" units:"m/s"`
	MaxSegmentDrop float64 `desc:"Maximum allowable pressure drop per segment" units:"kPa"`
	Branches       []BranchSpec
	Header         BranchSpec
}

// PipeSegment is one sized segment of the network.
type PipeSegment struct {
	BranchSpec
	DN               int     `desc:"Selected nominal diameter" units:"mm"`
	InternalDiameter float64 `desc:"Schedule 40 internal diameter" units:"m"`
	Velocity         float64 `desc:"Actual velocity" units:"m/s"`
	EquivalentLength float64 `desc:"Fitting equivalent length" units:"m"`
	Details          FlowDetails
	PressureDrop     float64 `desc:"Friction pressure drop incl. fittings" units:"Pa"`
}

// NetworkDesign holds the results of the piping stage.
type NetworkDesign struct {
	Material    string
	Segments    []PipeSegment
	Header      PipeSegment
	TotalDrop   float64 `desc:"Worst-path pressure drop (worst branch + header)" units:"Pa"`
	TotalHead   float64 `desc:"Worst-path head loss" units:"m"`
	WorstBranch string
	TotalLength float64 `desc:"Total straight pipe length" units:"m"`
}

// SizeSegment selects the smallest standard DN for a branch that keeps
// the velocity at or below cfg.MaxVelocity and the segment pressure
// drop within cfg.MaxSegmentDrop. It reports a sizing failure if no
// standard diameter satisfies both constraints.
func SizeSegment(spec BranchSpec, cfg NetworkConfig) (PipeSegment, error) {
	roughness, ok := Roughness[cfg.Material]
	if !ok {
		return PipeSegment{}, fmt.Errorf("heatrec: unknown pipe material %q", cfg.Material)
	}
	if spec.Flow <= 0 {
		return PipeSegment{}, fmt.Errorf("heatrec: segment %s: flow must be positive", spec.ID)
	}
	q := spec.Flow / 3600 // m³/s
	maxDropPa := cfg.MaxSegmentDrop * 1000

	for _, dn := range StandardDN {
		d := dnInternalDiameter(dn)
		v := FlowVelocity(q, d)
		if v > cfg.MaxVelocity {
			continue // next larger size
		}
		lEq, err := EquivalentLength(spec.Fittings, d)
		if err != nil {
			return PipeSegment{}, fmt.Errorf("heatrec: segment %s: %v", spec.ID, err)
		}
		dP, details := DarcyWeisbach(v, spec.Length+lEq, d, roughness)
		if dP > maxDropPa {
			continue
		}
		return PipeSegment{
			BranchSpec:       spec,
			DN:               dn,
			InternalDiameter: d,
			Velocity:         v,
			EquivalentLength: lEq,
			Details:          details,
			PressureDrop:     dP,
		}, nil
	}
	return PipeSegment{}, fmt.Errorf("heatrec: segment %s: no standard diameter carries %.2f m³/h within %.1f m/s and %.1f kPa",
		spec.ID, spec.Flow, cfg.MaxVelocity, cfg.MaxSegmentDrop)
}

// SizeNetwork returns a stage that sizes every branch and the header,
// and computes the worst-path pressure drop (the highest-loss branch in
// series with the header), which drives pump selection.
func SizeNetwork(cfg NetworkConfig) SystemManipulator {
	return func(s *System) error {
		if s.Sources == nil {
			return fmt.Errorf("heatrec: piping stage requires the heat-source analysis")
		}
		if len(cfg.Branches) == 0 {
			return fmt.Errorf("heatrec: no branches to size")
		}

		n := &NetworkDesign{Material: cfg.Material}
		var worst float64
		for _, b := range cfg.Branches {
			seg, err := SizeSegment(b, cfg)
			if err != nil {
				return err
			}
			n.Segments = append(n.Segments, seg)
			n.TotalLength += seg.Length
			if seg.PressureDrop > worst {
				worst = seg.PressureDrop
				n.WorstBranch = seg.ID
			}
		}

		header, err := SizeSegment(cfg.Header, cfg)
		if err != nil {
			return err
		}
		n.Header = header
		n.TotalLength += header.Length

		n.TotalDrop = worst + header.PressureDrop
		n.TotalHead = PressureToHead(n.TotalDrop)

		s.Network = n
		return nil
	}
}
