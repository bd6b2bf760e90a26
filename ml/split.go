package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets that keep
// the class ratio of y. Every class lands on both sides, so each needs at
// least two rows.
func StratifiedSplit(y []int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	if len(byClass) < 2 {
		return nil, nil, errors.New("stratified split needs at least two classes")
	}
	classes := make([]int, 0, len(byClass))
	for c, rows := range byClass {
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("class %d has %d row(s), need at least 2 to stratify", c, len(rows))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	n := len(y)
	nTest := int(math.Ceil(testSize * float64(n)))
	alloc := make(map[int]int, len(classes))
	type remainder struct {
		class int
		frac  float64
	}
	var rems []remainder
	assigned := 0
	for _, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		alloc[c] = int(math.Floor(exact))
		assigned += alloc[c]
		rems = append(rems, remainder{c, exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < nTest; i++ {
		alloc[rems[i%len(rems)].class]++
		assigned++
	}

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		rows := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		k := min(max(alloc[c], 1), len(rows)-1)
		test = append(test, rows[:k]...)
		train = append(train, rows[k:]...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}
