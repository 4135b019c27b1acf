package dataset

// Imputation records a numeric column whose missing cells were filled.
type Imputation struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Filled int     `json:"filled"`
}

// Impute fills missing cells of every numeric column with the mean of that
// column's present values. Text columns keep their missing cells. A numeric
// column with no present values has no mean and is left as is.
func Impute(t *Table) (*Table, []Imputation) {
	cols := make([]*Column, len(t.cols))
	var filled []Imputation
	for j, c := range t.cols {
		cols[j] = c
		if c.kind != KindNumeric {
			continue
		}
		var sum float64
		n := 0
		for i, v := range c.num {
			if c.present[i] {
				sum += v
				n++
			}
		}
		if n == 0 || n == len(c.num) {
			continue
		}
		mean := sum / float64(n)
		num := make([]float64, len(c.num))
		present := make([]bool, len(c.num))
		for i, v := range c.num {
			if c.present[i] {
				num[i] = v
			} else {
				num[i] = mean
			}
			present[i] = true
		}
		cols[j] = newNumericColumn(c.name, num, present)
		filled = append(filled, Imputation{Column: c.name, Mean: mean, Filled: len(c.num) - n})
	}
	return mustTable(cols, t.rows), filled
}
