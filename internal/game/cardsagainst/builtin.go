package cardsagainst

import "fmt"

// builtinPrompts is the stock prompt deck. A pick of 2 or 3 means the
// submission must contain that many response cards, played in order.
var builtinPrompts = []struct {
	text string
	pick int
}{
	{"Why can't I sleep at night?", 1},
	{"I got 99 problems but _____ ain't one.", 1},
	{"What's that smell?", 1},
	{"_____ + _____ = _____", 3},
	{"Make a haiku: _____ / _____ / _____", 3},
	{"What's the next Happy Meal® toy?", 1},
	{"What ended my last relationship?", 1},
	{"What's that sound?", 1},
	{"_____ is a slippery slope that leads to _____.", 2},
	{"In M. Night Shyamalan's new movie, Bruce Willis discovers that _____ had really been _____ all along.", 2},
	{"What's my secret power?", 1},
	{"What would grandma find disturbing, yet oddly charming?", 1},
	{"Life for the new generation is all about _____.", 1},
	{"What gets better with age?", 1},
	{"I drink to forget _____.", 1},
	{"What's the most emo?", 1},
	{"_____: good to the last drop.", 1},
	{"Next on the news: why is _____ ruining everything?", 1},
	{"When I am President, I will create the Department of _____.", 1},
	{"What never fails to liven up the party?", 1},
	{"Step 1: _____. Step 2: _____. Step 3: profit.", 2},
	{"What am I giving up for Lent?", 1},
	{"What did I bring back from my trip abroad?", 1},
	{"The class field trip was completely ruined by _____.", 1},
}

// builtinResponses is the stock response deck.
var builtinResponses = []string{
	"Being on fire.",
	"Puppies!",
	"A lifetime of sadness.",
	"The internet.",
	"World peace.",
	"Netflix and chill.",
	"Existential dread.",
	"A really bad haircut.",
	"Free samples at Costco.",
	"The inevitable heat death of the universe.",
	"Awkward silence.",
	"Dad jokes.",
	"A suspicious package.",
	"The Spanish Inquisition.",
	"A really good sandwich.",
	"Aggressively mediocre coffee.",
	"An alarming number of pigeons.",
	"Interpretive dance.",
	"A firm handshake.",
	"Forgetting why you walked into the room.",
	"A motivational poster of a kitten.",
	"Passive-aggressive sticky notes.",
	"The last slice of pizza.",
	"Mondays.",
	"A decorative gourd.",
	"Unsolicited advice.",
	"Glitter. Everywhere. Forever.",
	"A conspiracy theory about birds.",
	"Cargo shorts.",
	"The five-second rule.",
	"An expired coupon.",
	"A surprisingly judgmental parrot.",
	"Elevator small talk.",
	"Socks with sandals.",
	"A PowerPoint with too many slides.",
	"Reply-all disasters.",
	"A haunted Roomba.",
	"The printer at work.",
	"Lukewarm soup.",
	"An extremely long receipt.",
	"Karaoke night gone wrong.",
	"Someone else's shopping cart.",
	"A very confident toddler.",
	"Accidentally liking a photo from 2014.",
	"The wifi going down.",
	"A single, perfect meatball.",
	"Speed walking.",
	"A group project.",
	"Losing one glove.",
	"The snooze button.",
	"An over-watered houseplant.",
	"Decaf.",
	"A mystery stain.",
	"Competitive birdwatching.",
	"The office thermostat wars.",
	"An inspirational email signature.",
	"Finding money in an old coat.",
	"A self-checkout machine with opinions.",
	"Slow clapping at the wrong moment.",
	"An unnecessarily dramatic weather forecast.",
	"Matching family pajamas.",
	"A lifetime supply of bubble wrap.",
	"Whispering 'same' to yourself.",
	"The neighbor's leaf blower at 7am.",
	"An untrained therapy llama.",
	"Pretending to understand wine.",
	"Novelty oversized scissors.",
	"Leaving a party without saying goodbye.",
	"A very specific playlist.",
	"Loud chewing.",
	"The group chat.",
	"An avocado at peak ripeness for nine seconds.",
	"Waving back at someone who wasn't waving at you.",
	"A drawer full of mystery cables.",
	"Seasonal small talk.",
	"Jury duty.",
	"A rogue shopping bag in a tree.",
	"Overly enthusiastic gym music.",
	"The fourth reminder email.",
	"A pen that works on the first try.",
	"Cold pizza for breakfast.",
	"An airport at 4am.",
	"Too many browser tabs.",
	"A standing ovation for the bus driver.",
	"Forgetting a name immediately.",
	"The good scissors.",
	"An extremely local news story.",
	"Doing it for the exposure.",
	"A very brave little spider.",
	"Hold music.",
	"The expiration date on yogurt.",
	"A weighted blanket of responsibility.",
	"Clapping when the plane lands.",
	"An all-you-can-eat salad bar.",
	"Typing and deleting the same message.",
	"The smell of a new book.",
	"A chair covered in clothes.",
	"Misreading the room.",
	"One thousand rubber ducks.",
	"A lukewarm take.",
	"The last parking spot.",
	"An ambitious to-do list.",
	"Mansplaining the plot of a movie.",
	"A fire drill during lunch.",
	"Extra croutons.",
	"The concept of brunch.",
	"A deeply personal ringtone.",
	"Winning an argument in the shower.",
}

var builtin *Catalog

func init() {
	cards := make([]Card, 0, len(builtinPrompts)+len(builtinResponses))
	for i, p := range builtinPrompts {
		cards = append(cards, Card{
			ID:   fmt.Sprintf("p%d", i+1),
			Kind: KindPrompt,
			Text: p.text,
			Pick: p.pick,
		})
	}
	for i, text := range builtinResponses {
		cards = append(cards, Card{
			ID:   fmt.Sprintf("r%d", i+1),
			Kind: KindResponse,
			Text: text,
		})
	}
	var err error
	builtin, err = NewCatalog(cards)
	if err != nil {
		panic("builtin card set invalid: " + err.Error())
	}
}

// Builtin returns the stock catalog shipped with the server.
func Builtin() *Catalog {
	return builtin
}
