package tournament

import (
	"pokerclock.com/director/internal/util"
)

// Standard payout percentage tiers. A tier covers up to its place
// count; the requested number of places slices the tier.
var (
	twoPlacePercentages   = []float64{65, 35}
	threePlacePercentages = []float64{50, 30, 20}
	fivePlacePercentages  = []float64{40, 25, 15, 12, 8}
	ninePlacePercentages  = []float64{30, 20, 12.5, 10, 7.5, 6, 5, 4.5, 4.5}
	// Head of the wide table. Sums to 80; the remaining 20 is split
	// equally among places beyond the tenth.
	tenPlacePercentages = []float64{27, 17.5, 10, 7.5, 5.5, 4, 3.5, 2.5, 1.5, 1}
)

const wideFieldTailPercentage = 20.0

// payoutPercentages returns the percentage split for the given number
// of paid places, index 0 = first place. Slicing a tier short leaves
// part of it unallocated; that share goes to first place so the
// percentages always sum to 100 and agree with the amounts.
func payoutPercentages(places int) []float64 {
	var tier []float64
	switch {
	case places <= 1:
		tier = []float64{100}
	case places == 2:
		tier = twoPlacePercentages
	case places == 3:
		tier = threePlacePercentages
	case places <= 5:
		tier = fivePlacePercentages[:places]
	case places <= 9:
		tier = ninePlacePercentages[:places]
	default:
		tier = tenPlacePercentages
	}

	percentages := make([]float64, places)
	copy(percentages, tier)
	if places > 10 {
		tailShare := wideFieldTailPercentage / float64(places-10)
		for i := 10; i < places; i++ {
			percentages[i] = tailShare
		}
	}

	var sum float64
	for _, p := range percentages {
		sum += p
	}
	if !util.NearlyEqual(sum, 100) {
		percentages[0] += 100 - sum
	}
	return percentages
}

// GenerateDefaultPayouts builds the payout schedule for the given
// number of paid places and prize pool. Amounts are rounded to whole
// currency units and always sum to the pool exactly. The rounding
// remainder goes to first place.
func GenerateDefaultPayouts(places int, prizePool float64) []Payout {
	if places <= 0 {
		return []Payout{}
	}

	percentages := payoutPercentages(places)
	payouts := make([]Payout, places)
	var allocated float64
	for i := 0; i < places; i++ {
		amount := util.RoundDecimal(percentages[i]/100*prizePool, 0)
		payouts[i] = Payout{
			Position:   uint32(i + 1),
			Percentage: percentages[i],
			Amount:     amount,
		}
		allocated += amount
	}

	if !util.NearlyEqual(allocated, prizePool) {
		payouts[0].Amount += prizePool - allocated
	}
	return payouts
}
