package ecs

import "github.com/rs/zerolog"

func componentNames(components *Components, ids []ComponentId) *zerolog.Array {
	arr := zerolog.Arr()
	for _, id := range ids {
		arr = arr.Str(components.descriptionUnchecked(id).name)
	}
	return arr
}

func loadComponentIntoArray(id ComponentId, desc *ComponentDescription, arr *zerolog.Array) *zerolog.Array {
	dict := zerolog.Dict().
		Int("component_id", int(id)).
		Str("component_name", desc.name).
		Uint64("size", uint64(desc.layout.Size)).
		Bool("raw", desc.IsRaw())
	return arr.Dict(dict)
}

func loadComponentsToEvent(event *zerolog.Event, components *Components) *zerolog.Event {
	arr := zerolog.Arr()
	for id, desc := range components.All() {
		arr = loadComponentIntoArray(id, desc, arr)
	}
	return event.Int("total_components", components.Len()).Array("components", arr)
}

func loadArchetypesToEvent(event *zerolog.Event, archetypes *Archetypes, components *Components) *zerolog.Event {
	arr := zerolog.Arr()
	for arch := range archetypes.All() {
		dict := zerolog.Dict().
			Int("archetype_id", int(arch.id)).
			Int("rows", arch.Len()).
			Array("components", componentNames(components, arch.signature))
		arr = arr.Dict(dict)
	}
	return event.Int("total_archetypes", archetypes.Len()).Array("archetypes", arr)
}

// LogSummary writes the registered components, the archetypes and the
// entity count as a single event at level.
func (w *World) LogSummary(level zerolog.Level) {
	event := w.logger.WithLevel(level)
	event = loadComponentsToEvent(event, w.components)
	event = loadArchetypesToEvent(event, w.archetypes, w.components)
	event.Int("entities", w.entities.Len()).Msg("world summary")
}

// LogEntity writes the location and components of e at level.
func (w *World) LogEntity(level zerolog.Level, e Entity) {
	loc, ok := w.entities.Location(e)
	if !ok {
		w.logger.WithLevel(level).Stringer("entity", e).Msg("entity not found")
		return
	}
	arch := w.archetypes.getUnchecked(loc.Archetype)
	w.logger.WithLevel(level).
		Stringer("entity", e).
		Int("archetype_id", int(loc.Archetype)).
		Int("row", loc.Row).
		Array("components", componentNames(w.components, arch.signature)).
		Msg("entity")
}

func (w *World) installLogHooks() {
	w.components.onInit = func(id ComponentId, desc *ComponentDescription) {
		w.logger.Debug().
			Int("component_id", int(id)).
			Str("component_name", desc.name).
			Stringer("layout", desc.layout).
			Msg("component registered")
	}
	w.bundles.onInit = func(info *BundleInfo) {
		w.logger.Debug().
			Int("bundle_id", int(info.id)).
			Str("bundle_name", info.name).
			Array("components", componentNames(w.components, info.components)).
			Msg("bundle registered")
	}
	w.archetypes.onCreate = func(arch *Archetype) {
		w.logger.Debug().
			Int("archetype_id", int(arch.id)).
			Array("components", componentNames(w.components, arch.signature)).
			Msg("archetype created")
	}
}
