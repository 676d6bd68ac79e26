package statusboard

import "fmt"

// Strategy selects how a [Board] refreshes its snapshot.
type Strategy string

const (
	// StrategyPoll fetches the full snapshot on a fixed cadence.
	StrategyPoll Strategy = "poll"

	// StrategyPush keeps one WebSocket open and renders every pushed snapshot.
	StrategyPush Strategy = "push"
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// ParseStrategy converts a configuration value to a [Strategy].
// The empty string selects [StrategyPoll].
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyPoll:
		return StrategyPoll, nil
	case StrategyPush:
		return StrategyPush, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want poll or push)", s)
	}
}
