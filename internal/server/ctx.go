package server

import (
	"fmt"
	"sort"

	"github.com/woozymasta/dzmeasure/assets"
	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/measure"

	"github.com/rs/zerolog/log"
)

// DefaultMapName is used when the configuration lists no maps.
const DefaultMapName = "world"

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	MapNameResolver map[string]string
	Engines         map[string]*measure.Engine
	Registry        *measure.Registry
	IndexHTML       []byte
	Favicon         []byte

	clients wsClients
}

// NewServerContext builds one measurement engine per configured map and
// sets up the name resolver.
func NewServerContext(cfg *config.Config) (*ServerContext, error) {
	log.Info().Int("config_maps_count", len(cfg.Maps)).Msg("Initializing server context")

	if len(cfg.Maps) == 0 {
		cfg.Maps = []config.Map{{Name: DefaultMapName}}
	}

	resolver := make(map[string]string)
	engines := make(map[string]*measure.Engine, len(cfg.Maps))

	for i := range cfg.Maps {
		world := &cfg.Maps[i]

		if world.Attribution == "" {
			world.Attribution = cfg.Attribution
		}

		mc, err := cfg.Measurement(world)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", world.Name, err)
		}
		engine, err := measure.NewEngine(mc)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", world.Name, err)
		}
		engines[world.Name] = engine

		resolver[world.Name] = world.Name
		for _, alias := range world.Aliases {
			resolver[alias] = world.Name
		}

		log.Debug().
			Str("map", world.Name).
			Str("crs", mc.CRS.Name).
			Float64("radius", mc.CRS.Radius).
			Strs("distance_units", mc.DistanceUnits.Names()).
			Strs("area_units", mc.AreaUnits.Names()).
			Msg("Map measurement engine ready")
	}

	sort.Slice(cfg.Maps, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if cfg.Maps[i].Index != nil {
			idxI = *cfg.Maps[i].Index
		}
		if cfg.Maps[j].Index != nil {
			idxJ = *cfg.Maps[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return cfg.Maps[i].Name < cfg.Maps[j].Name
	})

	log.Info().
		Int("maps_count", len(cfg.Maps)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		MapNameResolver: resolver,
		Engines:         engines,
		Registry:        measure.NewRegistry(),
		IndexHTML:       assets.Index,
		Favicon:         assets.Favicon,
	}, nil
}

// engine resolves a map name or alias.
func (s *ServerContext) engine(name string) (string, *measure.Engine, bool) {
	mapName, ok := s.MapNameResolver[name]
	if !ok {
		return "", nil, false
	}
	return mapName, s.Engines[mapName], true
}
