package dice

// Source draws uniformly distributed integers in [low, high], inclusive on
// both ends. Every die draw and every range roll goes through a Source.
//
// Implementations own their thread-safety; the evaluator never locks.
type Source interface {
	Between(low, high int) int
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(low, high int) int

// Between implements Source.
func (fn SourceFunc) Between(low, high int) int {
	return fn(low, high)
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(src Source, sides int) int {
	return src.Between(1, sides)
}
