package loyalty

import "testing"

func TestNextVisitSevenVisitCycle(t *testing.T) {
	t.Parallel()

	want := []bool{false, false, false, false, false, false, true}
	for prior := int64(0); prior < 14; prior++ {
		ordinal, free := NextVisit(prior)
		if ordinal != prior+1 {
			t.Fatalf("NextVisit(%d) ordinal = %d, want %d", prior, ordinal, prior+1)
		}
		if free != want[prior%7] {
			t.Errorf("NextVisit(%d) free = %v, want %v", prior, free, want[prior%7])
		}
	}
}

func TestNextVisitClampsNegativePrior(t *testing.T) {
	t.Parallel()

	ordinal, free := NextVisit(-3)
	if ordinal != 1 || free {
		t.Fatalf("NextVisit(-3) = (%d, %v), want (1, false)", ordinal, free)
	}
}

func TestStatsBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total     int64
		untilFree int
		nextFree  bool
	}{
		{0, 7, false},
		{1, 6, false},
		{5, 2, false},
		{6, 1, true},
		{7, 7, false},
		{13, 1, true},
		{14, 7, false},
		{20, 1, true},
		{21, 7, false},
	}

	for _, tc := range cases {
		got := Stats(tc.total)
		if got.Total != tc.total {
			t.Errorf("Stats(%d).Total = %d", tc.total, got.Total)
		}
		if got.UntilFree != tc.untilFree {
			t.Errorf("Stats(%d).UntilFree = %d, want %d", tc.total, got.UntilFree, tc.untilFree)
		}
		if got.NextFree != tc.nextFree {
			t.Errorf("Stats(%d).NextFree = %v, want %v", tc.total, got.NextFree, tc.nextFree)
		}
	}
}

func TestStatsAgreesWithNextVisit(t *testing.T) {
	t.Parallel()

	for total := int64(0); total < 50; total++ {
		stats := Stats(total)
		_, free := NextVisit(total)
		if stats.NextFree != free {
			t.Errorf("Stats(%d).NextFree = %v disagrees with NextVisit free = %v", total, stats.NextFree, free)
		}
		if stats.NextFree && stats.UntilFree != 1 {
			t.Errorf("Stats(%d) reports NextFree with UntilFree = %d", total, stats.UntilFree)
		}
	}
}
