package core

import (
	"math"
	"testing"
)

func TestWaterFilling_RedistributesSaturatedShare(t *testing.T) {
	s := buildTestScenario(t, unevenFile())

	res, err := WaterFillingAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if res.Status != StatusSimulated {
		t.Fatalf("status = %q, want %q", res.Status, StatusSimulated)
	}

	// First round offers 20 per path: e_small absorbs 10 and saturates,
	// e_big takes 20. The leftover 10 is re-split over the survivor pool,
	// so e_big ends at 30 and nothing goes unsent.
	if got := flowOn(t, s, res, "e_small"); math.Abs(got-10) > 1e-6 {
		t.Errorf("flow on e_small = %v, want 10", got)
	}
	if got := flowOn(t, s, res, "e_big"); math.Abs(got-30) > 1e-6 {
		t.Errorf("flow on e_big = %v, want 30", got)
	}

	analysis, err := AnalyzePerformance(s, res.Allocation)
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}
	if analysis.TotalUnsentTraffic > flowEpsilon {
		t.Errorf("unsent = %v, want 0", analysis.TotalUnsentTraffic)
	}
}

func TestWaterFilling_StopsWhenPoolExhausted(t *testing.T) {
	// Demand far above the pool's combined capacity: everything saturates
	// and the loop must terminate with the residual unsent.
	file := unevenFile()
	file.EndhostUplinks = map[string]float64{"h1": 500}
	file.TrafficPerDestination = map[string]float64{"X": 400}
	s := buildTestScenario(t, file)

	res, err := WaterFillingAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if got := res.Allocation.TotalSent(); math.Abs(got-110) > 1e-6 {
		t.Errorf("total sent = %v, want 110 (combined egress capacity)", got)
	}
}

func TestWaterFilling_MaxPathsLimitsPool(t *testing.T) {
	s := buildTestScenario(t, unevenFile())

	res, err := WaterFillingAllocator{MaxPaths: 1}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	// The pool is just the 10 ms path; redistribution has nowhere to go.
	if got := flowOn(t, s, res, "e_small"); math.Abs(got-10) > 1e-6 {
		t.Errorf("flow on e_small = %v, want 10", got)
	}
	if got := flowOn(t, s, res, "e_big"); got > flowEpsilon {
		t.Errorf("flow on e_big = %v, want 0", got)
	}
}

func TestWaterFilling_MatchesFairShareWhenNothingSaturates(t *testing.T) {
	file := unevenFile()
	file.TrafficPerDestination = map[string]float64{"X": 16} // 8 per path, below every cap
	s := buildTestScenario(t, file)

	wf, err := WaterFillingAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("water filling: %v", err)
	}
	fs, err := FairShareAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("fair share: %v", err)
	}
	for key, want := range fs.Allocation {
		if got := wf.Allocation[key]; math.Abs(got-want) > 1e-6 {
			t.Errorf("flow %v = %v, want %v", key, got, want)
		}
	}
	if len(wf.Allocation) != len(fs.Allocation) {
		t.Errorf("allocation sizes differ: %d vs %d", len(wf.Allocation), len(fs.Allocation))
	}
}
