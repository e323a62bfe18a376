package osmwrangle

var Version string

// buildVersion gets replaced while building with
// go build -ldflags "-X github.com/jocon37/OpenStreetMap-Data-Wrangling.buildVersion=1234"
var buildVersion string

func init() {
	Version = "0.2.0"
	Version += buildVersion
}
