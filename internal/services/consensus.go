package services

import "sort"

const (
	// ConsensusThreshold is the share of total confidence one outcome needs
	ConsensusThreshold = 0.67
	// MinConsensusVotes is the number of votes before consensus is evaluated
	MinConsensusVotes = 3
)

// WeightedVote is one oracle's vote and the confidence it carries
type WeightedVote struct {
	Vote       int
	Confidence float64
}

// ConsensusResult is the outcome of CheckConsensus. Outcome and Share
// describe the leading outcome whether or not it reached the threshold.
type ConsensusResult struct {
	HasConsensus bool    `json:"has_consensus"`
	Outcome      int     `json:"outcome"`
	Share        float64 `json:"share"`
}

// CheckConsensus groups votes by outcome, weights them by confidence and
// reports the leading outcome with its share of the total weight. Ties go to
// the lowest outcome index. HasConsensus is set when that share reaches
// ConsensusThreshold. The quorum (MinConsensusVotes) is the caller's concern.
func CheckConsensus(votes []WeightedVote) ConsensusResult {
	weights := make(map[int]float64)
	total := 0.0
	for _, v := range votes {
		weights[v.Vote] += v.Confidence
		total += v.Confidence
	}
	if total <= 0 {
		return ConsensusResult{}
	}

	outcomes := make([]int, 0, len(weights))
	for outcome := range weights {
		outcomes = append(outcomes, outcome)
	}
	sort.Ints(outcomes)

	leader := outcomes[0]
	for _, outcome := range outcomes[1:] {
		if weights[outcome] > weights[leader] {
			leader = outcome
		}
	}
	share := weights[leader] / total
	return ConsensusResult{
		HasConsensus: share >= ConsensusThreshold,
		Outcome:      leader,
		Share:        share,
	}
}
