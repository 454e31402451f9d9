package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"namedprng/adapters/mt19937"
	"namedprng/adapters/postgres"
	"namedprng/adapters/tape"
	"namedprng/app"
	"namedprng/domain/core"
	"namedprng/domain/registry"
	"namedprng/domain/seed"
	"namedprng/internal/config"
	"namedprng/internal/logging"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "namedprng",
		Short: "Named PRNG streams for reproducible Monte Carlo runs",
	}

	rootCmd.AddCommand(
		newWalkCmd(),
		newReplayCmd(),
		newTapeCmd(),
		newRegistryCmd(),
		newSessionsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newWalkCmd() *cobra.Command {
	var scenarioPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Run the scenario's random walk over named streams",
		Long: `Run a random walk driven by named, seeded streams. Every particle of the
walk type takes one step per time step, a normal increment obtained from
the stream's uniform draw. With mode: record the raw uniforms land on
tapes for later replay.

Example: namedprng walk --scenario scenario.yaml --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd.Context(), scenarioPath, workers)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "scenario.yaml", "Scenario file")
	cmd.Flags().IntVar(&workers, "workers", 1, "Realizations in flight at once")

	return cmd
}

func newReplayCmd() *cobra.Command {
	var scenarioPath string
	var workers int
	var verify bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run the scenario's walk from recorded tapes",
		Long: `Re-run a previously recorded walk, reading every draw back from the
scenario's tape directory instead of the algorithmic engines. With
--verify the algorithmic walk is computed alongside and compared draw for
draw.

Example: namedprng replay --scenario scenario.yaml --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), scenarioPath, workers, verify)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "scenario.yaml", "Scenario file")
	cmd.Flags().IntVar(&workers, "workers", 1, "Realizations in flight at once")
	cmd.Flags().BoolVar(&verify, "verify", false, "Compare the replay against a fresh algorithmic run")

	return cmd
}

func newTapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tape",
		Short: "Inspect recorded tapes",
	}
	cmd.AddCommand(newTapeDumpCmd())
	return cmd
}

func newTapeDumpCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dump [tape-file]",
		Short: "Print the records of one tape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTapeDump(args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Records to print, 0 for all")

	return cmd
}

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the scenario's particle registry",
	}
	cmd.AddCommand(newRegistryShowCmd(), newRegistryExportCmd())
	return cmd
}

func newRegistryShowCmd() *cobra.Command {
	var scenarioPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the registry population and derived seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistryShow(scenarioPath)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "scenario.yaml", "Scenario file")

	return cmd
}

func newRegistryExportCmd() *cobra.Command {
	var scenarioPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the registry snapshot to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistryExport(scenarioPath, outPath)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "scenario.yaml", "Scenario file")
	cmd.Flags().StringVar(&outPath, "out", "registry.json", "Snapshot output file")

	return cmd
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse the session ledger",
	}
	cmd.AddCommand(newSessionsListCmd(), newSessionsShowCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored session manifests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Manifests to list, 0 for all")

	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print one session manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsShow(cmd.Context(), args[0])
		},
	}
	return cmd
}

// buildRegistry expands the scenario's type declarations into a registry.
func buildRegistry(sc *config.Scenario) (*registry.Registry, error) {
	defs := make([]registry.TypeDef, 0, len(sc.Types))
	for _, t := range sc.Types {
		def := registry.TypeDef{Name: core.TypeName(t.Name)}
		if t.Count > 0 {
			for i := 0; i < t.Count; i++ {
				def.Particles = append(def.Particles, registry.ParticleDef{
					ID:         core.ParticleID(strconv.Itoa(i)),
					OrderIndex: i,
				})
			}
		} else {
			for i, p := range t.Particles {
				def.Particles = append(def.Particles, registry.ParticleDef{
					ID:         core.ParticleID(p),
					OrderIndex: i,
				})
			}
		}
		defs = append(defs, def)
	}
	return registry.New(defs...)
}

// buildManager assembles the stream manager a scenario describes. The
// returned deck is nil in algorithmic mode and must be closed otherwise.
func buildManager(sc *config.Scenario, mode core.StreamMode, log zerolog.Logger) (*app.Manager, *tape.Deck, error) {
	reg, err := buildRegistry(sc)
	if err != nil {
		return nil, nil, err
	}
	der, err := seed.NewDeriver(sc.NMax, sc.CorePurposes())
	if err != nil {
		return nil, nil, err
	}

	var deck *tape.Deck
	if mode != core.ModeAlgorithmic {
		deck, err = tape.NewDeck(sc.TapeDir, nil)
		if err != nil {
			return nil, nil, err
		}
	}

	mgr, err := app.NewManager(reg, der, mt19937.NewFactory(), deck, app.Options{
		Mode:     mode,
		UsedOnly: sc.UsedOnly,
		TapeDir:  sc.TapeDir,
		Logger:   &log,
	})
	if err != nil {
		if deck != nil {
			deck.Close()
		}
		return nil, nil, err
	}
	return mgr, deck, nil
}

func seriesRequest(sc *config.Scenario) app.SeriesRequest {
	realizations := make([]core.Realization, len(sc.Realizations))
	for i, r := range sc.Realizations {
		realizations[i] = core.Realization(r)
	}
	return app.SeriesRequest{
		Type:         core.TypeName(sc.Walk.Type),
		Purpose:      core.Purpose(sc.Walk.Purpose),
		Realizations: realizations,
		Steps:        sc.Walk.Steps,
		SkipSteps:    sc.Walk.SkipSteps,
		Include:      toParticleIDs(sc.Walk.Include),
		Exclude:      toParticleIDs(sc.Walk.Exclude),
	}
}

func toParticleIDs(names []string) []core.ParticleID {
	if len(names) == 0 {
		return nil
	}
	ids := make([]core.ParticleID, len(names))
	for i, n := range names {
		ids[i] = core.ParticleID(n)
	}
	return ids
}

func runWalk(ctx context.Context, scenarioPath string, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	sc, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if sc.Walk.Type == "" {
		return fmt.Errorf("scenario %s declares no walk", scenarioPath)
	}

	mode := core.StreamMode(sc.Mode)
	mgr, deck, err := buildManager(sc, mode, log)
	if err != nil {
		return err
	}
	if deck != nil {
		defer deck.Close()
	}

	log.Info().
		Str("scenario", scenarioPath).
		Str("mode", mode.String()).
		Int("realizations", len(sc.Realizations)).
		Int("steps", sc.Walk.Steps).
		Msg("starting walk")

	uniforms, err := mgr.Sweep(ctx, seriesRequest(sc), workers)
	if err != nil {
		return err
	}

	printWalkSummary(sc, uniforms)

	if cfg.Database.URL != "" {
		if err := storeManifest(ctx, cfg.Database.URL, mgr); err != nil {
			return err
		}
	}
	return nil
}

func runReplay(ctx context.Context, scenarioPath string, workers int, verify bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	sc, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if sc.Walk.Type == "" {
		return fmt.Errorf("scenario %s declares no walk", scenarioPath)
	}

	mgr, deck, err := buildManager(sc, core.ModeReplay, log)
	if err != nil {
		return err
	}
	defer deck.Close()

	uniforms, err := mgr.Sweep(ctx, seriesRequest(sc), workers)
	if err != nil {
		return err
	}
	printWalkSummary(sc, uniforms)

	if !verify {
		return nil
	}

	fresh, _, err := buildManager(sc, core.ModeAlgorithmic, log)
	if err != nil {
		return err
	}
	want, err := fresh.Sweep(ctx, seriesRequest(sc), workers)
	if err != nil {
		return err
	}

	for r := range want {
		for s := range want[r] {
			for p := range want[r][s] {
				if uniforms[r][s][p] != want[r][s][p] {
					return fmt.Errorf("replay diverged at realization %d step %d particle %d: %v != %v",
						r, s, p, uniforms[r][s][p], want[r][s][p])
				}
			}
		}
	}
	fmt.Println("✅ replay matches the algorithmic run draw for draw")
	return nil
}

// printWalkSummary folds the uniform draws into normal walk increments and
// prints per-realization statistics of the final positions.
func printWalkSummary(sc *config.Scenario, uniforms [][][]float64) {
	normal := distuv.Normal{Mu: 0, Sigma: sc.Walk.Sigma}

	fmt.Printf("\n📊 WALK RESULTS (%s / %s)\n", sc.Walk.Type, sc.Walk.Purpose)
	for r, block := range uniforms {
		if len(block) == 0 || len(block[0]) == 0 {
			fmt.Printf("realization %d: no particles survived the filter\n", sc.Realizations[r])
			continue
		}

		particles := len(block[0])
		final := make([]float64, particles)
		var increments []float64
		for _, step := range block {
			for p, u := range step {
				inc := normal.Quantile(clampOpen(u))
				final[p] += inc
				increments = append(increments, inc)
			}
		}

		mean, _ := stats.Mean(final)
		median, _ := stats.Median(final)
		spread, _ := stats.StandardDeviation(final)
		stepMean, stepStd := stat.MeanStdDev(increments, nil)

		fmt.Printf("realization %d: %d particles, %d steps\n", sc.Realizations[r], particles, len(block))
		fmt.Printf("   final position mean %.4f, median %.4f, std %.4f\n", mean, median, spread)
		fmt.Printf("   step mean %.4f, step std %.4f\n", stepMean, stepStd)
	}
}

// clampOpen keeps uniforms inside the open interval so the normal quantile
// stays finite.
func clampOpen(u float64) float64 {
	if u <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return u
}

func storeManifest(ctx context.Context, dbURL string, mgr *app.Manager) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the session ledger: %w", err)
	}
	defer db.Close()

	ledger := postgres.NewSessionLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		return err
	}

	manifest := mgr.Manifest()
	if err := ledger.StoreManifest(ctx, *manifest); err != nil {
		return err
	}
	fmt.Printf("\n🧾 session %s stored (fingerprint %s)\n", manifest.SessionID, manifest.Fingerprint.Value)
	return nil
}

func runTapeDump(path string, limit int) error {
	player, err := tape.OpenPlayer(path)
	if err != nil {
		return err
	}
	defer player.Close()

	total := player.Remaining()
	fmt.Printf("📼 %s: %d records\n", path, total)

	n := total
	if limit > 0 && uint64(limit) < n {
		n = uint64(limit)
	}
	for i := uint64(0); i < n; i++ {
		v, err := player.Draw()
		if err != nil {
			return err
		}
		fmt.Printf("%6d  %.17g\n", i, v)
	}
	if n < total {
		fmt.Printf("   ... and %d more\n", total-n)
	}
	return nil
}

func runRegistryShow(scenarioPath string) error {
	sc, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	reg, err := buildRegistry(sc)
	if err != nil {
		return err
	}
	der, err := seed.NewDeriver(sc.NMax, sc.CorePurposes())
	if err != nil {
		return err
	}

	fmt.Printf("registry %s (n_max %d)\n", reg.Hash(), sc.NMax)
	for _, t := range reg.Types() {
		count, err := reg.Count(t)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s: %d particles\n", t, count)

		slots, err := reg.LiveSlots(t)
		if err != nil {
			return err
		}
		for _, s := range slots {
			fmt.Printf("   %-12s slot %d, order %d\n", s.ID, s.Position, s.OrderIndex)
		}
		for _, p := range der.Purposes() {
			key := core.GroupKey{Realization: 0, Type: t, Purpose: p}
			sd, err := der.Derive(key)
			if err != nil {
				return err
			}
			fmt.Printf("   seed[%s] = %d\n", p, sd)
		}
	}
	return nil
}

func runRegistryExport(scenarioPath, outPath string) error {
	sc, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	reg, err := buildRegistry(sc)
	if err != nil {
		return err
	}
	if err := reg.Save(outPath); err != nil {
		return err
	}
	fmt.Printf("registry snapshot written to %s (%s)\n", outPath, reg.Hash())
	return nil
}

func openLedger(ctx context.Context) (*sqlx.DB, *postgres.SessionLedgerImpl, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to the session ledger: %w", err)
	}
	return db, postgres.NewSessionLedger(db), nil
}

func runSessionsList(ctx context.Context, limit int) error {
	db, ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	manifests, err := ledger.ListManifests(ctx, limit)
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		fmt.Println("no sessions stored")
		return nil
	}

	fmt.Printf("%-38s %-24s %-12s %-8s %s\n", "SESSION", "CREATED", "MODE", "STREAMS", "FINGERPRINT")
	for _, m := range manifests {
		fmt.Printf("%-38s %-24s %-12s %-8d %.12s\n",
			m.SessionID, m.CreatedAt.Time().Format("2006-01-02 15:04:05"), m.Mode, len(m.Streams), m.Fingerprint.Value)
	}
	return nil
}

func runSessionsShow(ctx context.Context, rawID string) error {
	id, err := core.ParseSessionID(rawID)
	if err != nil {
		return err
	}

	db, ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	manifest, err := ledger.GetManifest(ctx, id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
