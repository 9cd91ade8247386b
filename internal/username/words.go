package username

// adjectives and nouns form the username keyspace.
var adjectives = []string{
	"agile", "alert", "alpine", "amber", "ancient", "arcane", "arctic", "astral", "atomic", "autumn",
	"azure", "bold", "brave", "bright", "bronze", "calm", "clever", "cloudy", "cosmic", "crisp",
	"cryptic", "cyan", "daring", "dense", "digital", "divine", "dusty", "eager", "early", "earthy",
	"electric", "elite", "epic", "eternal", "exotic", "fancy", "feral", "fierce", "fluid", "flying",
	"fresh", "frosty", "fuzzy", "gentle", "gifted", "glowing", "golden", "grand", "happy", "hazy",
	"hidden", "hollow", "humble", "icy", "indigo", "iron", "jade", "jolly", "keen", "kind",
	"leafy", "lucky", "lunar", "magic", "marble", "mellow", "merry", "misty", "modern", "mossy",
	"mystic", "neon", "noble", "novel", "ocean", "olive", "onyx", "pearl", "polar", "prime",
	"proud", "quiet", "rapid", "regal", "retro", "robust", "royal", "ruby", "rustic", "sandy",
	"scarlet", "silent", "silver", "sleek", "solar", "sonic", "steady", "swift", "velvet", "vivid",
}

var nouns = []string{
	"acorn", "anchor", "apex", "arrow", "atlas", "aura", "badge", "beacon", "bear", "birch",
	"blade", "bloom", "breeze", "brook", "cabin", "canyon", "cedar", "cipher", "cliff", "cloud",
	"comet", "coral", "crane", "crest", "crow", "delta", "dune", "eagle", "echo", "ember",
	"falcon", "fern", "fjord", "flame", "forge", "fox", "frost", "galaxy", "garden", "geyser",
	"glade", "glacier", "harbor", "hawk", "heron", "hill", "horizon", "island", "jaguar", "jasper",
	"kestrel", "lagoon", "lantern", "lark", "ledger", "lynx", "maple", "meadow", "meteor", "mesa",
	"moth", "nebula", "nomad", "oak", "oasis", "orbit", "otter", "owl", "panther", "pebble",
	"phoenix", "pine", "planet", "prairie", "quartz", "raven", "reef", "ridge", "river", "rocket",
	"sage", "shore", "sparrow", "spruce", "summit", "thistle", "thunder", "tiger", "trail", "tundra",
	"valley", "vapor", "vertex", "violet", "voyager", "walrus", "willow", "wolf", "yarrow", "zephyr",
}
