package enrich

import (
	"fmt"

	"go.uber.org/zap"
)

// Output column names.
const (
	ColDistanceToCenter     = "distance_to_center"
	ColDistanceToMetro      = "distance_to_metro"
	ColNumberOfMetroLines   = "number_of_metro_lines"
	ColDistanceToHospital   = "distance_to_hospital"
	ColDistanceToAirport    = "distance_to_airport"
	ColDistanceToStateUni   = "distance_to_state_uni"
	ColDistanceToTechUni    = "distance_to_tech_uni"
	ColDistanceToOstozhenka = "distance_to_ulitsa_ostozhenka"
)

// BuildPipeline resolves configuration into an ordered chain of stages.
// population is the combined reference population (e.g. train plus test)
// the imputers compute their statistics from; it is only read.
func BuildPipeline(cfg *Config, refs *References, population *Dataset, logger *zap.Logger) (*Pipeline, error) {
	p := NewPipeline(logger)

	for _, imp := range cfg.Imputation {
		stage, err := buildImputer(imp, population)
		if err != nil {
			return nil, err
		}
		p.Append(stage)
	}

	for _, e := range cfg.Encoders {
		cats := make(map[float64]string, len(e.Categories))
		for code, label := range e.Categories {
			cats[float64(code)] = label
		}
		p.Append(&CategoricalEncoder{Source: e.Source, Categories: cats, RemoveSource: e.RemoveSource})
	}

	f := cfg.Features
	if f.Derived {
		p.Append(RowStage{Feature: ListingDerived{SellerMissingFlag: cfg.Derived.SellerMissingFlag}})
	}
	if f.DistanceToCenter {
		if err := appendLandmark(p, ColDistanceToCenter, cfg.Locations.CityCenter); err != nil {
			return nil, err
		}
	}
	if f.Metro {
		if refs.Metro == nil {
			return nil, fmt.Errorf("%w: metro stations not loaded", ErrConfiguration)
		}
		nf := &NearestFacility{Set: refs.Metro, DistanceColumn: ColDistanceToMetro}
		if f.MetroLines {
			nf.Attributes = MetroLineColumns(cfg.Reference.Metro.Lines)
			nf.CountColumn = ColNumberOfMetroLines
		}
		p.Append(RowStage{Feature: nf})
	}
	if f.Bearing {
		b := NewBearing(cfg.Locations.CityCenter)
		b.ConvertDegrees = cfg.Bearing.ConvertDegrees
		p.Append(RowStage{Feature: b})
	}
	if f.Hospital {
		if refs.Hospitals == nil {
			return nil, fmt.Errorf("%w: hospitals not loaded", ErrConfiguration)
		}
		p.Append(RowStage{Feature: &NearestFacility{Set: refs.Hospitals, DistanceColumn: ColDistanceToHospital}})
	}
	if f.Airport {
		if refs.Airports == nil {
			return nil, fmt.Errorf("%w: airports not loaded", ErrConfiguration)
		}
		p.Append(RowStage{Feature: &NearestFacility{Set: refs.Airports, DistanceColumn: ColDistanceToAirport}})
	}
	if f.Universities {
		if err := appendLandmark(p, ColDistanceToStateUni, cfg.Locations.StateUniversity); err != nil {
			return nil, err
		}
		if err := appendLandmark(p, ColDistanceToTechUni, cfg.Locations.TechUniversity); err != nil {
			return nil, err
		}
	}

	membership := &PolygonMembership{Polygons: refs.Districts}
	if f.DistanceToUlitsaOstozhenka {
		lm, err := LandmarkDistance(ColDistanceToOstozhenka, cfg.Locations.Ostozhenka)
		if err != nil {
			return nil, configErrorf("locations.ostozhenka", err)
		}
		membership.Landmark = lm
	}
	if len(membership.Polygons) > 0 || membership.Landmark != nil {
		p.Append(RowStage{Feature: membership})
	}
	return p, nil
}

func buildImputer(imp ImputationConfig, population *Dataset) (Stage, error) {
	switch imp.Strategy {
	case StrategyBin:
		bins := imp.Bins
		if bins == 0 {
			bins = DefaultBinCount
		}
		s, err := NewBinMeanImputer(population, imp.Feature, imp.BinFeature, bins, imp.Decimals)
		if err != nil {
			return nil, configErrorf("imputation "+imp.Feature, err)
		}
		return s, nil
	case StrategyNeighbor:
		s, err := NewNeighborMeanImputer(population, imp.Feature, imp.NeighborFeatures, imp.K, imp.Decimals)
		if err != nil {
			return nil, configErrorf("imputation "+imp.Feature, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown imputation strategy %q", ErrConfiguration, imp.Strategy)
	}
}

func appendLandmark(p *Pipeline, column string, at LatLon) error {
	lm, err := LandmarkDistance(column, at)
	if err != nil {
		return configErrorf(column, err)
	}
	p.Append(RowStage{Feature: lm})
	return nil
}
