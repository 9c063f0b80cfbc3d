// Package mansion determines which of the 28 lunar mansions applies to a date.
// Two table-driven strategies and a modulo strategy are provided; any result that
// falls outside the tables is replaced by a deterministic hash-based fallback.
package mansion

import "fmt"

// Count is the number of lunar mansions
const Count = 28

// Description text used when a label has no entry in the description table
const NoDescription = "No description available."

// Mansion is one of the 28 lunar mansions
type Mansion struct {
	Label       string `json:"label"`
	Native      string `json:"native"`
	Description string `json:"description"`
}

// cycle is the traditional order starting at the Horn
var cycle = [Count]string{
	"The Horn", "The Neck", "The Root", "The Room", "The Heart", "The Tail", "The Winnowing Basket",
	"The Dipper", "The Ox", "The Girl", "The Void", "The Rooftop", "The Encampment", "The Wall",
	"The Legs", "The Bond", "The Stomach", "The Pleiades", "The Net", "The Beak", "The Three Stars",
	"The Well", "The Ghost", "The Willow", "The Star", "The Extended Net", "The Wings", "The Chariot",
}

var nativeToLabel = map[string]string{
	"角": "The Horn",
	"亢": "The Neck",
	"氐": "The Root",
	"房": "The Room",
	"心": "The Heart",
	"尾": "The Tail",
	"箕": "The Winnowing Basket",
	"斗": "The Dipper",
	"牛": "The Ox",
	"女": "The Girl",
	"虚": "The Void",
	"危": "The Rooftop",
	"室": "The Encampment",
	"壁": "The Wall",
	"奎": "The Legs",
	"娄": "The Bond",
	"胃": "The Stomach",
	"昴": "The Pleiades",
	"毕": "The Net",
	"觜": "The Beak",
	"参": "The Three Stars",
	"井": "The Well",
	"鬼": "The Ghost",
	"柳": "The Willow",
	"星": "The Star",
	"张": "The Extended Net",
	"翼": "The Wings",
	"轸": "The Chariot",
}

type description struct {
	label string
	text  string
}

// descriptions is ordered: the fallback hash indexes into this order, not into cycle
var descriptions = [Count]description{
	{"The Horn", "The beacon of ambition, igniting your path to success."},
	{"The Neck", "The guardian of balance, harmonizing your cosmic journey."},
	{"The Root", "The anchor of wisdom, grounding your soul in truth."},
	{"The Room", "The haven of growth, opening doors to new beginnings."},
	{"The Heart", "The star of passion, guiding your heart to cosmic love."},
	{"The Tail", "The spark of transformation, leading you to renewal."},
	{"The Winnowing Basket", "The weave of abundance, attracting prosperity and joy."},
	{"The Dipper", "The ladle of destiny, pouring clarity into your fate."},
	{"The Ox", "The pillar of strength, carrying you through challenges."},
	{"The Girl", "The muse of grace, inspiring beauty in your actions."},
	{"The Void", "The void of potential, inviting infinite possibilities."},
	{"The Rooftop", "The flame of courage, empowering you to face fears."},
	{"The Encampment", "The fortress of stability, shielding your dreams."},
	{"The Wall", "The barrier of protection, safeguarding your spirit."},
	{"The Legs", "The stride of progress, propelling you toward goals."},
	{"The Bond", "The tie of connection, uniting you with cosmic allies."},
	{"The Stomach", "The core of resilience, fueling your inner strength."},
	{"The Pleiades", "The cluster of insight, illuminating hidden truths."},
	{"The Net", "The web of opportunity, capturing luck in your path."},
	{"The Beak", "The point of precision, sharpening your focus and will."},
	{"The Three Stars", "The triad of harmony, balancing mind, body, soul."},
	{"The Well", "The source of vitality, nourishing your cosmic energy."},
	{"The Ghost", "The whisper of ancestors, guiding with ancient wisdom."},
	{"The Willow", "The branch of flexibility, bending with life's flow."},
	{"The Star", "The light of destiny, shining on your true purpose."},
	{"The Extended Net", "The reach of ambition, expanding your cosmic horizon."},
	{"The Wings", "The flight of freedom, soaring to new heights."},
	{"The Chariot", "The vehicle of progress, driving you to victory."},
}

var (
	descriptionByLabel = make(map[string]string, Count)
	labelToNative      = make(map[string]string, Count)
)

func init() {
	for _, d := range descriptions {
		descriptionByLabel[d.label] = d.text
	}
	for native, label := range nativeToLabel {
		labelToNative[label] = native
	}
	for _, label := range cycle {
		if _, ok := labelToNative[label]; !ok {
			panic(fmt.Sprintf("mansion %q has no native name", label))
		}
	}
}

// Describe returns the descriptive sentence for a label, or NoDescription
func Describe(label string) string {
	if text, ok := descriptionByLabel[label]; ok {
		return text
	}
	return NoDescription
}

// HasDescription reports whether label appears in the description table
func HasDescription(label string) bool {
	_, ok := descriptionByLabel[label]
	return ok
}

// Lookup returns the mansion with the given English label
func Lookup(label string) (Mansion, bool) {
	native, ok := labelToNative[label]
	if !ok {
		return Mansion{}, false
	}
	return Mansion{Label: label, Native: native, Description: Describe(label)}, true
}

// Translate returns the English label for a native-script mansion name
func Translate(native string) (string, bool) {
	label, ok := nativeToLabel[native]
	return label, ok
}

// Cycle returns a copy of the 28 mansions in cyclic order
func Cycle() []Mansion {
	out := make([]Mansion, 0, Count)
	for _, label := range cycle {
		m, _ := Lookup(label)
		out = append(out, m)
	}
	return out
}
