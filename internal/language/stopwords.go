package language

import "strings"

// stopwords per language, used when extracting query keywords for the
// relevance computation. Unknown languages fall back to the union of pt+en.
var stopwords = map[string]map[string]struct{}{
	"pt": wordSet("a o e de do da dos das em no na nos nas um uma que não para com por mais como mas ou se ao aos à às pelo pela isso esse essa este esta entre sobre sua seu são ser tem foi está"),
	"en": wordSet("a an the of and to in is was for on are as with at be this have from or by but not what all were when can there how their will each about out then them these i it its"),
	"es": wordSet("el la los las de en y a que es un una por con para su al lo como más pero sus le ya o fue esta son entre cuando sin sobre"),
	"fr": wordSet("le la les de des un une et à est dans que qui pour sur avec ne pas ce cette son ses au aux par plus mais ou comme"),
	"de": wordSet("der die das und in den von zu mit sich des auf für ist im dem nicht ein eine als auch es an aus er dass sie bei um am"),
}

// Keywords returns the stop-word-filtered lowercase keyword set of text
// for the given language, preserving first-seen order.
func Keywords(text, lang string) []string {
	stop, ok := stopwords[strings.ToLower(lang)]
	if !ok {
		stop = fallbackStopwords
	}

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		if len(tok) < 3 {
			continue
		}
		if _, isStop := stop[tok]; isStop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

var fallbackStopwords = func() map[string]struct{} {
	merged := make(map[string]struct{})
	for _, lang := range []string{"pt", "en"} {
		for w := range stopwords[lang] {
			merged[w] = struct{}{}
		}
	}
	return merged
}()
