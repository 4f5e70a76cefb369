package game

import (
	"skyarena/internal/game/spatial"
)

// Leaderboard ranks players by score using a skip list.
//
// Operations:
//   - UpdateScore: O(log n)
//   - GetRank: O(log n)
//   - GetTop: O(log n + k)
type Leaderboard struct {
	skipList *spatial.SkipList
}

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	IsBot    bool    `json:"isBot"`
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{skipList: spatial.NewSkipList()}
}

// UpdateScore sets a player's score, inserting the player if needed.
func (lb *Leaderboard) UpdateScore(playerID string, score float64) {
	lb.skipList.Insert(playerID, score)
}

// RemovePlayer drops a player from the ranking.
func (lb *Leaderboard) RemovePlayer(playerID string) {
	lb.skipList.Remove(playerID)
}

// GetRank returns the 1-indexed rank of a player, or 0 when unranked.
func (lb *Leaderboard) GetRank(playerID string) int {
	return lb.skipList.GetRank(playerID)
}

// GetTop returns the n best players. Equal scores rank by ascending id.
func (lb *Leaderboard) GetTop(n int) []LeaderboardEntry {
	if n <= 0 {
		return nil
	}

	entries := lb.skipList.GetRange(1, n)
	result := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = LeaderboardEntry{Rank: i + 1, PlayerID: e.Key, Score: e.Score}
	}
	return result
}

// Len returns the number of ranked players.
func (lb *Leaderboard) Len() int {
	return lb.skipList.Length()
}
