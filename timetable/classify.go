package timetable

// classification holds the facts about a week set that drive rule synthesis.
type classification struct {
	interval        int
	largestGap      int
	straddlesRecess bool
}

// classify expects weeks in ascending calendar order.
func classify(weeks NumericWeeks) classification {
	c := classification{interval: 1}
	if alternates(weeks) {
		c.interval = 2
	}

	var before, after bool
	for i, w := range weeks {
		if i > 0 {
			if gap := w.Slot() - weeks[i-1].Slot(); gap > c.largestGap {
				c.largestGap = gap
			}
		}
		before = before || w.beforeRecess()
		after = after || w.afterRecess()
	}
	c.straddlesRecess = before && after
	return c
}

// alternates reports whether weeks are all odd or all even teaching weeks.
func alternates(weeks NumericWeeks) bool {
	if len(weeks) == 0 {
		return false
	}
	odd, even := true, true
	for _, w := range weeks {
		odd = odd && w.isOdd()
		even = even && w.isEven()
	}
	return odd || even
}

// dense reports whether the rule can stop right after the last week: the
// weeks are evenly spaced by the interval and do not cross recess.
func (c classification) dense(size int) bool {
	if size <= 1 {
		return true
	}
	return c.largestGap == c.interval && !c.straddlesRecess
}
