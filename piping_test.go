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

import "testing"

func testNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Material:       "commercial_steel",
		TargetVelocity: 1.5,
		MaxVelocity:    2.5,
		MaxSegmentDrop: 50,
		Branches: []BranchSpec{
			{
				ID: "C1", From: "compressor 1", To: "header",
				Length: 6.2, Flow: 8.61,
				Fittings: map[string]int{"90_elbow": 4, "gate_valve_open": 1},
			},
			{
				ID: "C5", From: "compressor 5", To: "header",
				Length: 11.2, Flow: 4.5,
				Fittings: map[string]int{"90_elbow": 3},
			},
		},
		Header: BranchSpec{
			ID: "header", From: "header", To: "storage tank",
			Length: 15, Flow: 32.93,
			Fittings: map[string]int{"tee_line": 2},
		},
	}
}

// sizedSystem runs the source and piping stages on the shared fixture.
func sizedSystem(t *testing.T) *System {
	t.Helper()
	s := &System{}
	if err := AnalyzeSources(testCompressors(), testScenarios(), testDesign())(s); err != nil {
		t.Fatal(err)
	}
	if err := SizeNetwork(testNetworkConfig())(s); err != nil {
		t.Fatal(err)
	}
	return s
}

// SizeSegment must select the smallest standard diameter that honors
// both the velocity and the pressure-drop limits.
func TestSizeSegment(t *testing.T) {
	cfg := testNetworkConfig()

	seg, err := SizeSegment(cfg.Branches[0], cfg)
	if err != nil {
		t.Fatal(err)
	}
	if seg.DN != 50 {
		t.Errorf("branch C1: got DN%d, want DN50", seg.DN)
	}
	if seg.Velocity > cfg.MaxVelocity {
		t.Errorf("branch C1: velocity %g exceeds limit %g", seg.Velocity, cfg.MaxVelocity)
	}
	if seg.PressureDrop > cfg.MaxSegmentDrop*1000 {
		t.Errorf("branch C1: pressure drop %g Pa exceeds limit", seg.PressureDrop)
	}

	// The next smaller size must violate a constraint, otherwise the
	// selection was not minimal.
	vSmaller := FlowVelocity(cfg.Branches[0].Flow/3600, dnInternalDiameter(40))
	if vSmaller <= cfg.MaxVelocity {
		t.Errorf("DN40 velocity %g within limits; DN50 selection not minimal", vSmaller)
	}

	header, err := SizeSegment(cfg.Header, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if header.DN != 80 {
		t.Errorf("header: got DN%d, want DN80", header.DN)
	}
}

func TestSizeSegmentNoFit(t *testing.T) {
	cfg := testNetworkConfig()
	spec := BranchSpec{ID: "huge", Length: 10, Flow: 1e5}
	if _, err := SizeSegment(spec, cfg); err == nil {
		t.Fatal("expected sizing failure for impossible flow")
	}
}

func TestSizeSegmentUnknownMaterial(t *testing.T) {
	cfg := testNetworkConfig()
	cfg.Material = "unobtainium"
	if _, err := SizeSegment(cfg.Branches[0], cfg); err == nil {
		t.Fatal("expected unknown material error")
	}
}

func TestSizeNetwork(t *testing.T) {
	const testTolerance = 1.e-9
	s := sizedSystem(t)
	n := s.Network

	if len(n.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(n.Segments))
	}
	// The longer, smaller branch dominates the pressure drop.
	if n.WorstBranch != "C5" {
		t.Errorf("worst branch: got %s, want C5", n.WorstBranch)
	}
	var worst float64
	for _, seg := range n.Segments {
		if seg.PressureDrop > worst {
			worst = seg.PressureDrop
		}
	}
	if absDifferent(n.TotalDrop, worst+n.Header.PressureDrop, testTolerance) {
		t.Errorf("total drop %g is not worst branch %g plus header %g",
			n.TotalDrop, worst, n.Header.PressureDrop)
	}
	if absDifferent(n.TotalHead, PressureToHead(n.TotalDrop), testTolerance) {
		t.Errorf("total head %g inconsistent with total drop %g Pa", n.TotalHead, n.TotalDrop)
	}
	if absDifferent(n.TotalLength, 6.2+11.2+15, testTolerance) {
		t.Errorf("total length: got %g m, want 32.4 m", n.TotalLength)
	}
}

// Sizing the same network twice must give identical results.
func TestSizeNetworkDeterministic(t *testing.T) {
	a := sizedSystem(t).Network
	b := sizedSystem(t).Network
	if a.TotalDrop != b.TotalDrop || a.TotalHead != b.TotalHead || a.WorstBranch != b.WorstBranch {
		t.Errorf("repeated sizing differs: %+v vs %+v", a, b)
	}
	for i := range a.Segments {
		if a.Segments[i].DN != b.Segments[i].DN || a.Segments[i].PressureDrop != b.Segments[i].PressureDrop {
			t.Errorf("segment %s differs between runs", a.Segments[i].ID)
		}
	}
}
