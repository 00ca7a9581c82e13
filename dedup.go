package semmatch

// minBuckets keeps small inputs from paying for repeated map growth.
const minBuckets = 64

// Uniq drops findings that are Equal to one already kept.
//
// Equal findings always share a Range, so findings are bucketed by exact
// range first and only compared within a bucket. Duplicates cluster at the
// same location, which keeps buckets small. The result is grouped by bucket,
// with buckets in the order their first finding appeared.
func Uniq(findings []Finding) []Finding {
	if len(findings) < 2 {
		return findings
	}

	// Most locations carry one or two findings; size for the distinct
	// locations rather than the raw count.
	buckets := make(map[Range][]Finding, bucketHint(len(findings)))
	var order []Range

Findings:
	for _, f := range findings {
		kept, seen := buckets[f.Range]
		if !seen {
			order = append(order, f.Range)
		}
		for _, k := range kept {
			if Equal(k, f) {
				continue Findings
			}
		}
		buckets[f.Range] = append(kept, f)
	}

	out := make([]Finding, 0, len(findings))
	for _, r := range order {
		out = append(out, buckets[r]...)
	}
	return out
}

func bucketHint(n int) int {
	if h := n / 2; h > minBuckets {
		return h
	}
	return minBuckets
}
