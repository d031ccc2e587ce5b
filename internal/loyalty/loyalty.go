package loyalty

const FreeVisitPeriod = 7

type VisitStats struct {
	Total     int64 `json:"total"`
	UntilFree int   `json:"visits_until_free"`
	NextFree  bool  `json:"next_is_free"`
}

func NextVisit(priorCount int64) (ordinal int64, free bool) {
	if priorCount < 0 {
		priorCount = 0
	}
	ordinal = priorCount + 1
	return ordinal, ordinal%FreeVisitPeriod == 0
}

func Stats(total int64) VisitStats {
	if total < 0 {
		total = 0
	}
	return VisitStats{
		Total:     total,
		UntilFree: FreeVisitPeriod - int(total%FreeVisitPeriod),
		NextFree:  total%FreeVisitPeriod == FreeVisitPeriod-1,
	}
}
