package spectra

// Mask marks the valid (Ex, Eg) region of a matrix. Cells outside the mask
// carry zero weight in every fit.
type Mask struct {
	valid []bool
	rows  int
	cols  int
}

// NewMask returns a mask of the given shape with every cell invalid.
func NewMask(rows, cols int) *Mask {
	return &Mask{
		valid: make([]bool, rows*cols),
		rows:  rows,
		cols:  cols,
	}
}

// FullMask returns a mask of the given shape with every cell valid.
func FullMask(rows, cols int) *Mask {
	m := NewMask(rows, cols)
	for i := range m.valid {
		m.valid[i] = true
	}

	return m
}

// TrapezoidMask derives the standard Oslo valid region from a matrix:
// rows below the particle threshold exMin are cut, columns below egMin are
// cut, and cells violating energy conservation (Eg > Ex + diagonalTol) are
// cut. All energies are in the matrix's calibration units.
func TrapezoidMask(m *Matrix, exMin, egMin, diagonalTol float64) *Mask {
	mask := NewMask(m.Rows, m.Cols)

	for i := 0; i < m.Rows; i++ {
		ex := m.Ex.Energy(i)
		if ex < exMin {
			continue
		}

		for j := 0; j < m.Cols; j++ {
			eg := m.Eg.Energy(j)
			if eg < egMin {
				continue
			}

			if eg > ex+diagonalTol {
				continue
			}

			mask.Set(i, j, true)
		}
	}

	return mask
}

// NumRows returns the number of mask rows.
func (m *Mask) NumRows() int { return m.rows }

// NumCols returns the number of mask columns.
func (m *Mask) NumCols() int { return m.cols }

// Valid reports whether cell (i, j) is inside the valid region.
func (m *Mask) Valid(i, j int) bool {
	return m.valid[i*m.cols+j]
}

// Set marks cell (i, j) valid or invalid.
func (m *Mask) Set(i, j int, v bool) {
	m.valid[i*m.cols+j] = v
}

// Count returns the number of valid cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.valid {
		if v {
			n++
		}
	}

	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{
		valid: append([]bool(nil), m.valid...),
		rows:  m.rows,
		cols:  m.cols,
	}
}
