package hunt

import "math/rand/v2"

// BuildOrders assigns each team a permutation of clueIDs. Team i starts at
// clueIDs[i mod C] so teams fan out across the first clues; the remaining
// C-1 clues are shuffled independently per team. teamIDs must be in a
// stable order (creation order).
func BuildOrders(teamIDs, clueIDs []string, rng *rand.Rand) []TeamOrder {
	orders := make([]TeamOrder, 0, len(teamIDs))
	if len(clueIDs) == 0 {
		return orders
	}

	for i, teamID := range teamIDs {
		orders = append(orders, BuildOrder(i, teamID, clueIDs, rng))
	}
	return orders
}

// BuildOrder is the traversal for the team at position slot: it starts at
// clueIDs[slot mod C] and shuffles the rest.
func BuildOrder(slot int, teamID string, clueIDs []string, rng *rand.Rand) TeamOrder {
	c := len(clueIDs)
	if c == 0 {
		return TeamOrder{TeamID: teamID}
	}
	offset := slot % c

	rotated := make([]string, 0, c)
	rotated = append(rotated, clueIDs[offset:]...)
	rotated = append(rotated, clueIDs[:offset]...)

	rest := rotated[1:]
	rng.Shuffle(len(rest), func(a, b int) {
		rest[a], rest[b] = rest[b], rest[a]
	})

	return TeamOrder{TeamID: teamID, ClueIDs: rotated}
}
