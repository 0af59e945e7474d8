package textproc

import "strings"

// English stopwords. Contractions are listed whole because the word pattern
// keeps inner apostrophes.
var stopwordList = `
a about above after again against all almost alone along already also although
always am among an and another any anyhow anyone anything anyway anywhere are
aren't around as at be became because become becomes been before beforehand
behind being below beside besides between beyond both but by can can't cannot
could couldn't did didn't do does doesn't doing don't done down during each
either else elsewhere enough even ever every everyone everything everywhere
few for former formerly from further had hadn't has hasn't have haven't having
he he'd he'll he's hence her here here's hers herself him himself his how
how's however i i'd i'll i'm i've if in indeed into is isn't it it's its
itself just keep last latter least less let's made make many may me meanwhile
might mine more moreover most mostly much must mustn't my myself namely
neither never nevertheless next no nobody none noone nor not nothing now
nowhere of off often on once one only onto or other others otherwise ought our
ours ourselves out over own per perhaps please put quite rather re really
regarding same say see seem seemed seeming seems several she she'd she'll
she's should shouldn't show side since so some somehow someone something
sometime sometimes somewhere still such take than that that's the their theirs
them themselves then thence there there's thereafter thereby therefore therein
these they they'd they'll they're they've this those though through throughout
thru thus to together too toward towards under unless until up upon us used
using various very via was wasn't we we'd we'll we're we've well were weren't
what what's whatever when when's whence whenever where where's whereas wherever
whether which while who who's whoever whole whom whose why why's will with
within without won't would wouldn't yet you you'd you'll you're you've your
yours yourself yourselves
`

var defaultStopwords = buildStopwords(strings.Fields(stopwordList))

// DefaultStopwords returns a copy of the built-in English stopword set.
func DefaultStopwords() map[string]struct{} {
	out := make(map[string]struct{}, len(defaultStopwords))
	for w := range defaultStopwords {
		out[w] = struct{}{}
	}
	return out
}

// StopwordSet builds a set from words, lowercased.
func StopwordSet(words []string) map[string]struct{} {
	return buildStopwords(words)
}

func buildStopwords(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}
