// Package agent implements move-choosing policies for game clients.
package agent

import (
	"math"
	"math/rand/v2"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/tablut"
)

// Agent picks the next move for the player whose turn it is.
type Agent interface {
	// Name is sent in the START handshake.
	Name() string
	// ChooseMove must not change the game state of b.
	ChooseMove(b engine.Board) (engine.Move, error)
}

// Random plays a uniformly random legal move.
type Random struct {
	name string
}

func NewRandom(name string) *Random { return &Random{name: name} }

func (r *Random) Name() string { return r.name }

func (r *Random) ChooseMove(b engine.Board) (engine.Move, error) {
	return b.RandomMove()
}

// Greedy evaluates every legal Tablut move one ply deep: it takes a win when
// one exists, otherwise the move capturing the most pieces, and as the Swedes
// it breaks ties by walking the king toward a corner. Non-Tablut boards fall
// back to random play.
type Greedy struct {
	name string
	rng  *rand.Rand
}

// NewGreedy returns a greedy agent with a deterministic tie-breaker.
func NewGreedy(name string, seed uint64) *Greedy {
	return &Greedy{name: name, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Greedy) Name() string { return g.name }

func (g *Greedy) ChooseMove(b engine.Board) (engine.Move, error) {
	tb, ok := b.(*tablut.Board)
	if !ok {
		return b.RandomMove()
	}
	s := tb.Tablut()
	me := s.TurnPlayer()
	moves := s.LegalMoves()
	if len(moves) == 0 {
		return nil, engine.ErrNoLegalMoves
	}
	g.rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })

	best, bestScore := moves[0], math.MinInt
	for _, m := range moves {
		next := s.Clone()
		if err := next.Apply(m); err != nil {
			continue
		}
		if next.Winner() == me {
			return m, nil
		}
		if sc := evaluate(next, me); sc > bestScore {
			best, bestScore = m, sc
		}
	}
	return best, nil
}

// evaluate scores a position from me's point of view.
func evaluate(s *tablut.State, me engine.PlayerID) int {
	score := -100 * s.NumPieces(tablut.Opponent(me))
	if s.Winner() == tablut.Opponent(me) {
		score -= 10000
	}
	if me == tablut.Swedes {
		if k, ok := s.KingPosition(); ok {
			score -= tablut.Grid().DistanceToClosestCorner(k)
		}
	}
	return score
}
