package policy

import "time"

// Spaced repetition intervals indexed by review count: 1 week, 2 weeks,
// 1 month, 2 months, 4 months (cap). A learned entry that keeps proving
// itself correct gets reviewed less often; staleness is cheaper to accept
// than re-litigating it every time.
var reviewIntervals = []time.Duration{
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
	60 * 24 * time.Hour,
	120 * 24 * time.Hour,
}

// NextReviewInterval returns the time until the next review based on how
// many reviews have already been completed.
func NextReviewInterval(reviewCount int) time.Duration {
	if reviewCount < 0 {
		reviewCount = 0
	}
	if reviewCount >= len(reviewIntervals) {
		return reviewIntervals[len(reviewIntervals)-1]
	}
	return reviewIntervals[reviewCount]
}

// NextReviewTime returns the absolute time of the next review.
func NextReviewTime(lastReviewed time.Time, reviewCount int) time.Time {
	return lastReviewed.Add(NextReviewInterval(reviewCount))
}

// NeedsReview reports whether the next review time has passed.
func NeedsReview(nextReview time.Time) bool {
	return time.Now().After(nextReview)
}
