package strategy

import (
	"fmt"
	"math/rand"
)

// Message generation is presentation only: nothing downstream keys off the
// text, so these helpers can be swapped or stubbed without touching the
// decision math.

func buyerCounterMessage(rng *rand.Rand, amount int) string {
	messages := []string{
		fmt.Sprintf("I can go up to $%d. That's a fair price!", amount),
		fmt.Sprintf("How about $%d? That's the best I can do.", amount),
		fmt.Sprintf("Meet me halfway at $%d?", amount),
		fmt.Sprintf("$%d is my final offer for this quality item.", amount),
	}
	return messages[rng.Intn(len(messages))]
}

// sellerMessage picks a response line keyed by the shape of the counter:
// an acceptance, a firm counter (gap above 10% of the buyer's offer), or a
// converging one. Urgent items past round one get extra motivated-seller
// lines mixed in.
func sellerMessage(rng *rand.Rand, it InventoryItem, buyerOffer, counter, round int) string {
	var messages []string
	switch {
	case counter == buyerOffer:
		messages = []string{
			fmt.Sprintf("You've got a deal at $%d! When would you like to pick it up?", counter),
			fmt.Sprintf("$%d works for me. This %s is yours!", counter, it.Title),
			fmt.Sprintf("Sold! $%d it is. I'll hold it for you.", counter),
		}
	case float64(counter) > float64(buyerOffer)*1.1:
		messages = []string{
			fmt.Sprintf("I appreciate the offer, but $%d is the best I can do. This %s is worth every penny!", counter, it.Title),
			fmt.Sprintf("I can come down to $%d, but that's really pushing it for such a quality item.", counter),
			fmt.Sprintf("How about $%d? I've had a lot of interest in this %s.", counter, it.Title),
		}
	default:
		messages = []string{
			fmt.Sprintf("You're getting closer! I could do $%d. What do you think?", counter),
			fmt.Sprintf("Let's meet at $%d - that's a fair price for both of us.", counter),
			fmt.Sprintf("I'm willing to go to $%d. This %s won't last long at this price!", counter, it.Title),
		}
	}

	if it.Urgency > 0.6 && round >= 2 {
		messages = append(messages,
			fmt.Sprintf("I'm motivated to sell, so $%d works for me.", counter),
			fmt.Sprintf("I need to move this quickly - $%d and it's yours today!", counter),
			fmt.Sprintf("$%d and we have a deal. I'm ready to close this now.", counter),
		)
	}

	return messages[rng.Intn(len(messages))]
}
