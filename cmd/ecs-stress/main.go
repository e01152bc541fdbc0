package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/plus3/archstore/ecs"
)

func main() {
	duration := pflag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := pflag.Int("entities", 10000, "The initial number of entities to create.")
	churn := pflag.Float64("churn", 0.01, "Fraction of entities despawned and respawned per update.")
	profileMode := pflag.String("profile", "none", "Profile to record while running: none, cpu or mem.")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn or error.")
	seed := pflag.Int64("seed", 1, "Seed for the random entity generator.")
	pflag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	switch *profileMode {
	case "none":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		logger.Fatal().Str("profile", *profileMode).Msg("unknown profile mode")
	}

	logger.Info().Msg("starting ECS stress test")

	// 1. Setup the world
	w := ecs.NewWorld(
		ecs.WithLogger(logger),
		ecs.WithEntityCapacity(*entityCount),
		ecs.WithColumnCapacity(*entityCount/8),
	)
	rng := rand.New(rand.NewSource(*seed))

	// 2. Populate the world with initial entities
	logger.Info().Int("entities", *entityCount).Msg("populating world")
	live := make([]ecs.Entity, 0, *entityCount)
	for i := 0; i < *entityCount; i++ {
		e, err := spawnRandom(w, rng)
		if err != nil {
			logger.Fatal().Err(err).Msg("spawn failed")
		}
		live = append(live, e)
	}
	logger.Info().Int("archetypes", w.Archetypes().Len()).Msg("population complete")

	// 3. Run the simulation loop
	report := &Report{
		Duration: *duration,
		Entities: *entityCount,
		Churn:    *churn,
		Profile:  *profileMode,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Stringer("duration", *duration).Msg("running simulation")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	sim := &simulation{world: w, rng: rng, live: live, churn: *churn, commands: ecs.NewCommands()}
	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := sim.update(deltaTime.Seconds()); err != nil {
				logger.Fatal().Err(err).Msg("update failed")
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Spawned = sim.spawned
	report.Despawned = sim.despawned
	report.LiveEntities = w.Len()
	report.Archetypes = w.Archetypes().Len()
	report.Components = w.Components().Len()
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info().Msg("simulation finished")
	w.LogSummary(zerolog.DebugLevel)

	// 4. Generate report to console
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("failed to generate report")
	}
}

type simulation struct {
	world    *ecs.World
	rng      *rand.Rand
	live     []ecs.Entity
	churn    float64
	commands *ecs.Commands

	spawned   int
	despawned int
}

// update runs one frame: integrate movement, age entities, then churn a
// fraction of the population through the command buffer.
func (s *simulation) update(dt float64) error {
	for _, m := range ecs.NewQueryMut[Mover](s.world).All() {
		m.Position.X += m.Velocity.DX * dt
		m.Position.Y += m.Velocity.DY * dt
	}

	for e, a := range ecs.NewQueryMut[Aging](s.world).All() {
		a.Lifetime.Ticks--
		if a.Lifetime.Ticks > 0 {
			continue
		}
		if a.Health != nil {
			ecs.QueueRemove[Health](s.commands, e)
		}
		ecs.QueueInsert(s.commands, e, Lifetime{Ticks: 10 + s.rng.Intn(200)})
	}

	n := int(float64(len(s.live)) * s.churn)
	for i := 0; i < n && len(s.live) > 0; i++ {
		j := s.rng.Intn(len(s.live))
		s.commands.Despawn(s.live[j])
		s.live[j] = s.live[len(s.live)-1]
		s.live = s.live[:len(s.live)-1]
		s.despawned++
	}
	s.commands.Defer(func(w *ecs.World) error {
		for i := 0; i < n; i++ {
			e, err := spawnRandom(w, s.rng)
			if err != nil {
				return err
			}
			s.live = append(s.live, e)
			s.spawned++
		}
		return nil
	})

	return s.commands.Flush(s.world)
}
