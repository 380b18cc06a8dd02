package main

// Neighbors returns the in-bounds orthogonal neighbors of (x, y).
// Corners get 2, edges 3, interior points 4.
func (b Board) Neighbors(x, y int) []Move {
	directions := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	neighbors := make([]Move, 0, 4)
	for i := 0; i < 4; i++ {
		nx := x + directions[i][0]
		ny := y + directions[i][1]
		if b.InBounds(nx, ny) {
			neighbors = append(neighbors, Move{X: nx, Y: ny})
		}
	}
	return neighbors
}

// Group returns the maximal chain of same-colored stones connected to (x, y)
// through orthogonal adjacency. Returns nil for an empty cell. Each cell is
// visited once, so the cost is linear in the chain size.
func (b Board) Group(x, y int) []Move {
	color := b.At(x, y)
	if color == CellEmpty {
		return nil
	}
	visited := make([]bool, b.size*b.size)
	group := make([]Move, 0, 8)
	group = append(group, Move{X: x, Y: y})
	visited[b.index(x, y)] = true
	for cursor := 0; cursor < len(group); cursor++ {
		stone := group[cursor]
		for _, next := range b.Neighbors(stone.X, stone.Y) {
			if visited[b.index(next.X, next.Y)] {
				continue
			}
			if b.At(next.X, next.Y) != color {
				continue
			}
			visited[b.index(next.X, next.Y)] = true
			group = append(group, next)
		}
	}
	return group
}

// Liberties counts the distinct empty cells adjacent to any stone of the
// group. An empty cell touching several group stones counts once.
func (b Board) Liberties(group []Move) int {
	seen := make([]bool, b.size*b.size)
	count := 0
	for _, stone := range group {
		for _, next := range b.Neighbors(stone.X, stone.Y) {
			idx := b.index(next.X, next.Y)
			if seen[idx] {
				continue
			}
			seen[idx] = true
			if b.At(next.X, next.Y) == CellEmpty {
				count++
			}
		}
	}
	return count
}
