package state

// matrix is a P x R grid of quantities stored in one contiguous buffer.
// Entry (i, j) lives at cells[i*cols+j]; rows are never resized or aliased.
type matrix struct {
	rows  int
	cols  int
	cells []int
}

func newMatrix(rows, cols int) matrix {
	return matrix{rows: rows, cols: cols, cells: make([]int, rows*cols)}
}

// row returns the live slice for row i. Callers outside the package only
// ever see copies.
func (m matrix) row(i int) Vector {
	return Vector(m.cells[i*m.cols : (i+1)*m.cols : (i+1)*m.cols])
}

func (m matrix) at(i, j int) int {
	return m.cells[i*m.cols+j]
}

func (m matrix) clone() matrix {
	cells := make([]int, len(m.cells))
	copy(cells, m.cells)
	return matrix{rows: m.rows, cols: m.cols, cells: cells}
}

func (m matrix) equal(other matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for k := range m.cells {
		if m.cells[k] != other.cells[k] {
			return false
		}
	}
	return true
}

// rowsCopy returns the matrix as a fresh slice of row vectors.
func (m matrix) rowsCopy() [][]int {
	out := make([][]int, m.rows)
	for i := 0; i < m.rows; i++ {
		out[i] = []int(m.row(i).Clone())
	}
	return out
}
