package districts

// Canonical district names used for validation and seed data. Application
// rows may carry suffixed variants ("Shimla Division", "Kangra HQ"); the
// matcher resolves those against this list.
var Canonical = []string{
	"Bilaspur",
	"Chamba",
	"Hamirpur",
	"Kangra",
	"Kinnaur",
	"Kullu",
	"Lahaul and Spiti",
	"Mandi",
	"Shimla",
	"Sirmaur",
	"Solan",
	"Una",
}

// Codes maps canonical district names to the short codes embedded in
// application numbers.
var Codes = map[string]string{
	"Bilaspur":         "BLP",
	"Chamba":           "CHM",
	"Hamirpur":         "HMR",
	"Kangra":           "KGR",
	"Kinnaur":          "KNR",
	"Kullu":            "KUL",
	"Lahaul and Spiti": "LAS",
	"Mandi":            "MND",
	"Shimla":           "SML",
	"Sirmaur":          "SMR",
	"Solan":            "SLN",
	"Una":              "UNA",
}

// FallbackCode is used when a district cannot be resolved to a canonical name.
const FallbackCode = "GEN"
