package rating

import "testing"

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.Total != 0 || stats.Average != 0 {
		t.Fatalf("stats = %+v, want zero values", stats)
	}
	if stats.Counts[ValueGood] != 0 || stats.Percentages[ValueBad] != 0 {
		t.Fatalf("buckets should be present and zeroed: %+v", stats)
	}
}

func TestComputeStatsWeightsAndRounding(t *testing.T) {
	stats := ComputeStats(map[string]int{ValueBad: 1, ValueOK: 1, ValueGood: 1})

	if stats.Total != 3 {
		t.Fatalf("Total = %d, want 3", stats.Total)
	}
	if stats.Average != 2.0 {
		t.Fatalf("Average = %v, want 2.0", stats.Average)
	}
	// 1/3 rounds to 33, not truncated floats.
	for value, want := range map[string]int{ValueBad: 33, ValueOK: 33, ValueGood: 33} {
		if stats.Percentages[value] != want {
			t.Fatalf("percentage[%s] = %d, want %d", value, stats.Percentages[value], want)
		}
	}

	stats = ComputeStats(map[string]int{ValueGood: 2, ValueBad: 1})
	if stats.Percentages[ValueGood] != 67 || stats.Percentages[ValueBad] != 33 {
		t.Fatalf("percentages = %+v", stats.Percentages)
	}
}

func TestComputeStatsIgnoresUnknownBuckets(t *testing.T) {
	stats := ComputeStats(map[string]int{ValueGood: 2, "stellar": 5})
	if stats.Total != 2 {
		t.Fatalf("Total = %d, want unknown bucket ignored", stats.Total)
	}
}

func TestInputValidate(t *testing.T) {
	valid := Input{MessageID: "m", UserID: "u", Type: "response_quality", Value: ValueOK}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for _, in := range []Input{
		{UserID: "u", Type: "t", Value: ValueOK},
		{MessageID: "m", Type: "t", Value: ValueOK},
		{MessageID: "m", UserID: "u", Value: ValueOK},
		{MessageID: "m", UserID: "u", Type: "t", Value: "great"},
	} {
		if err := in.Validate(); err == nil {
			t.Fatalf("Validate(%+v) should fail", in)
		}
	}
}
