package enrich

import "strings"

// Imputation strategies.
const (
	StrategyBin      = "bin"
	StrategyNeighbor = "neighbor"
)

// Config represents the full configuration file
type Config struct {
	Input      InputConfig        `yaml:"input" json:"input"`
	Output     OutputConfig       `yaml:"output" json:"output"`
	Reference  ReferenceConfig    `yaml:"reference" json:"reference"`
	Locations  Locations          `yaml:"locations" json:"locations"`
	Features   FeatureFlags       `yaml:"features" json:"features"`
	Imputation []ImputationConfig `yaml:"imputation,omitempty" json:"imputation,omitempty"`
	Encoders   []EncoderConfig    `yaml:"encoders,omitempty" json:"encoders,omitempty"`
	Bearing    BearingConfig      `yaml:"bearing" json:"bearing"`
	Derived    DerivedConfig      `yaml:"derived,omitempty" json:"derived,omitempty"`
	Publish    PublishConfig      `yaml:"publish,omitempty" json:"publish,omitempty"`
	Render     RenderConfig       `yaml:"render,omitempty" json:"render,omitempty"`
}

// InputConfig names the listing tables. Test is optional; when present it
// joins Train in the reference population used for imputation statistics.
type InputConfig struct {
	Train string `yaml:"train" json:"train"`
	Test  string `yaml:"test,omitempty" json:"test,omitempty"`
}

// OutputConfig holds where augmented tables are written.
type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// ReferenceConfig locates the reference data files.
type ReferenceConfig struct {
	Metro     MetroConfig      `yaml:"metro" json:"metro"`
	Hospitals string           `yaml:"hospitals,omitempty" json:"hospitals,omitempty"`
	Districts []DistrictConfig `yaml:"districts,omitempty" json:"districts,omitempty"`
}

// MetroConfig describes the transit station table.
type MetroConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Delimiter defaults to ";".
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	// NameColumn defaults to "English transcription".
	NameColumn string `yaml:"nameColumn,omitempty" json:"nameColumn,omitempty"`
	// Lines is N in metro_line_1..metro_line_N, default 15.
	Lines int `yaml:"lines,omitempty" json:"lines,omitempty"`
}

// DistrictConfig names a district polygon file.
type DistrictConfig struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Locations are the named coordinates the geospatial features measure from.
type Locations struct {
	CityCenter      LatLon   `yaml:"cityCenter" json:"cityCenter"`
	StateUniversity LatLon   `yaml:"stateUniversity" json:"stateUniversity"`
	TechUniversity  LatLon   `yaml:"techUniversity" json:"techUniversity"`
	Ostozhenka      LatLon   `yaml:"ostozhenka" json:"ostozhenka"`
	Airports        []LatLon `yaml:"airports" json:"airports"`
}

// DefaultLocations returns the Moscow reference points.
func DefaultLocations() Locations {
	return Locations{
		CityCenter:      LatLon{Lat: 55.751244, Lon: 37.618423},
		StateUniversity: LatLon{Lat: 55.70444300116007, Lon: 37.528611852796914},
		TechUniversity:  LatLon{Lat: 55.76666597872545, Lon: 37.68511242319504},
		Ostozhenka:      LatLon{Lat: 55.73936870697431, Lon: 37.595905186336914},
		Airports: []LatLon{
			{Lat: 55.5822, Lon: 37.2453},
			{Lat: 55.2431, Lon: 37.5422},
			{Lat: 55.3546, Lon: 37.1603},
			{Lat: 55.3312, Lon: 38.96},
			{Lat: 55.3042, Lon: 37.3026},
		},
	}
}

// FeatureFlags enables individual feature stages.
type FeatureFlags struct {
	Derived                    bool `yaml:"derived" json:"derived"`
	DistanceToCenter           bool `yaml:"distance_to_center" json:"distance_to_center"`
	Metro                      bool `yaml:"distance_to_metro" json:"distance_to_metro"`
	MetroLines                 bool `yaml:"metro_lines" json:"metro_lines"`
	Bearing                    bool `yaml:"bearing" json:"bearing"`
	Hospital                   bool `yaml:"distance_to_hospital" json:"distance_to_hospital"`
	Airport                    bool `yaml:"distance_to_airport" json:"distance_to_airport"`
	Universities               bool `yaml:"distance_to_universities" json:"distance_to_universities"`
	IsInKhamovniki             bool `yaml:"is_in_khamovniki" json:"is_in_khamovniki"`
	IsInYakimanka              bool `yaml:"is_in_yakimanka" json:"is_in_yakimanka"`
	IsInArbat                  bool `yaml:"is_in_arbat" json:"is_in_arbat"`
	IsInPresnensky             bool `yaml:"is_in_presnensky" json:"is_in_presnensky"`
	IsInTverskoy               bool `yaml:"is_in_tverskoy" json:"is_in_tverskoy"`
	DistanceToUlitsaOstozhenka bool `yaml:"distance_to_ulitsa_ostozhenka" json:"distance_to_ulitsa_ostozhenka"`
}

// DefaultFeatureFlags enables everything.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		Derived:                    true,
		DistanceToCenter:           true,
		Metro:                      true,
		MetroLines:                 true,
		Bearing:                    true,
		Hospital:                   true,
		Airport:                    true,
		Universities:               true,
		IsInKhamovniki:             true,
		IsInYakimanka:              true,
		IsInArbat:                  true,
		IsInPresnensky:             true,
		IsInTverskoy:               true,
		DistanceToUlitsaOstozhenka: true,
	}
}

// DistrictEnabled resolves the flag for a known district name. Districts
// without a dedicated flag are always enabled.
// Names match case-insensitively.
func (f FeatureFlags) DistrictEnabled(name string) bool {
	switch strings.ToLower(name) {
	case "khamovniki":
		return f.IsInKhamovniki
	case "yakimanka":
		return f.IsInYakimanka
	case "arbat":
		return f.IsInArbat
	case "presnensky":
		return f.IsInPresnensky
	case "tverskoy":
		return f.IsInTverskoy
	default:
		return true
	}
}

// ImputationConfig configures one imputation pass.
type ImputationConfig struct {
	Feature          string   `yaml:"feature" json:"feature"`
	Strategy         string   `yaml:"strategy" json:"strategy"` // "bin" or "neighbor"
	BinFeature       string   `yaml:"binFeature,omitempty" json:"binFeature,omitempty"`
	Bins             int      `yaml:"bins,omitempty" json:"bins,omitempty"` // default 40
	NeighborFeatures []string `yaml:"neighborFeatures,omitempty" json:"neighborFeatures,omitempty"`
	K                int      `yaml:"k,omitempty" json:"k,omitempty"`
	Decimals         int      `yaml:"decimals,omitempty" json:"decimals,omitempty"`
}

// EncoderConfig configures a one-hot expansion.
type EncoderConfig struct {
	Source       string         `yaml:"source" json:"source"`
	Categories   map[int]string `yaml:"categories" json:"categories"`
	RemoveSource bool           `yaml:"removeSource,omitempty" json:"removeSource,omitempty"`
}

// BearingConfig selects how the bearing formula treats degree inputs.
type BearingConfig struct {
	ConvertDegrees bool `yaml:"convertDegrees" json:"convertDegrees"`
}

// DerivedConfig tunes the listing arithmetic features. SellerMissingFlag
// writes has_seller as 1 when the seller cell is missing, the encoding older
// trained models expect.
type DerivedConfig struct {
	SellerMissingFlag bool `yaml:"sellerMissingFlag,omitempty" json:"sellerMissingFlag,omitempty"`
}

// PublishConfig holds MQTT settings for run-report publishing. An empty
// broker disables publishing.
type PublishConfig struct {
	Broker   string `yaml:"broker,omitempty" json:"broker,omitempty"`
	ClientID string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// RenderConfig controls map rendering.
type RenderConfig struct {
	Format     string  `yaml:"format,omitempty" json:"format,omitempty"`         // svg or png
	Resolution float64 `yaml:"resolution,omitempty" json:"resolution,omitempty"` // PNG DPI, default 150
}

// DefaultConfig returns a config with every default applied. LoadConfig
// decodes YAML on top of it.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Dir: "."},
		Reference: ReferenceConfig{
			Metro: MetroConfig{Delimiter: ";", NameColumn: "English transcription", Lines: 15},
		},
		Locations: DefaultLocations(),
		Features:  DefaultFeatureFlags(),
		Bearing:   BearingConfig{ConvertDegrees: true},
		Publish:   PublishConfig{Prefix: "flatfeat"},
		Render:    RenderConfig{Format: "svg", Resolution: 150},
	}
}
