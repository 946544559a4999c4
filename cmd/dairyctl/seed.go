package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

// SampleCowPrefix marks cows created by the seed command.
const SampleCowPrefix = "SAMPLE-COW-"

// scenario shapes the milk and feed series of a sample cow.
type scenario string

const (
	scenarioNormal     scenario = "normal"
	scenarioAttention  scenario = "attention"
	scenarioSlightDrop scenario = "slight_drop"
	scenarioPoorFCE    scenario = "poor_fce"
	scenarioGoodFCE    scenario = "good_fce"
	scenarioHeat       scenario = "heat"
)

var scenarios = []scenario{
	scenarioNormal,
	scenarioAttention,
	scenarioSlightDrop,
	scenarioPoorFCE,
	scenarioGoodFCE,
	scenarioHeat,
}

var sampleNames = []string{"Bella", "Daisy", "Molly", "Luna", "Rosie", "Maggie"}

func sampleCowID(i int) string {
	return fmt.Sprintf("%s%03d", SampleCowPrefix, i+1)
}

func sampleScenario(i int) scenario {
	return scenarios[i%len(scenarios)]
}

// sampleCows builds n active sample cows.
func sampleCows(n int) []models.Cow {
	cows := make([]models.Cow, 0, n)
	for i := 0; i < n; i++ {
		cows = append(cows, models.Cow{
			CowID:   sampleCowID(i),
			Name:    sampleNames[i%len(sampleNames)],
			CowType: models.CowTypeNormal,
			Status:  models.CowStatusActive,
		})
	}
	return cows
}

// sampleDay returns the milk and feed of a cow dayOffset days before today.
func sampleDay(sc scenario, dayOffset int, rng *rand.Rand) (milk, feed float64) {
	normalMilk := func() float64 { return 18 + rng.Float64()*4 }
	normalFeed := func() float64 { return 7.5 + rng.Float64()*1.5 }

	switch sc {
	case scenarioAttention:
		if dayOffset == 0 {
			return 12, 8.5
		}
		return normalMilk(), normalFeed()
	case scenarioSlightDrop:
		if dayOffset == 0 {
			return 17, 8
		}
		return 20, 8
	case scenarioPoorFCE:
		return 12 + rng.Float64()*2, 9 + rng.Float64()*1.5
	case scenarioGoodFCE:
		return 22 + rng.Float64()*3, 7 + rng.Float64()
	case scenarioHeat:
		if dayOffset == 0 || dayOffset == 2 {
			return 13 + rng.Float64()*2, 6 + rng.Float64()
		}
		return normalMilk(), normalFeed()
	default:
		return normalMilk(), normalFeed()
	}
}

// sampleRows generates one lane-log row per cow per day, for the days days
// ending on today. Milk is split 60/40 between the sessions.
func sampleRows(cows []models.Cow, days int, today time.Time, rng *rand.Rand) []models.LaneLogEntry {
	rows := make([]models.LaneLogEntry, 0, len(cows)*days)
	for i, cow := range cows {
		sc := sampleScenario(i)
		for offset := days - 1; offset >= 0; offset-- {
			milk, feed := sampleDay(sc, offset, rng)
			morning := models.Float(round2(milk * 0.6))
			evening := models.Float(round2(milk * 0.4))
			rows = append(rows, models.LaneLogEntry{
				Date:          models.AddDays(today, -offset),
				LaneNo:        rng.IntN(5) + 1,
				CowID:         cow.CowID,
				CowType:       cow.CowType,
				FeedGivenKg:   models.Float(round2(feed)),
				MorningYieldL: morning,
				EveningYieldL: evening,
				TotalYieldL:   models.TotalYield(morning, evening),
			})
		}
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newSeedCmd(a *app) *cobra.Command {
	var (
		days int
		cows int
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample cows and lane-log history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 || cows <= 0 {
				return fmt.Errorf("--days and --cows must be positive")
			}
			ctx := cmd.Context()
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

			herd := sampleCows(cows)
			for _, cow := range herd {
				if err := a.store.UpsertCow(ctx, cow); err != nil {
					return fmt.Errorf("seed cow %s: %w", cow.CowID, err)
				}
			}

			rows := sampleRows(herd, days, models.DateOf(a.now()), rng)
			for _, row := range rows {
				if _, err := a.store.UpsertLaneLog(ctx, row); err != nil {
					return fmt.Errorf("seed lane log %s %s: %w", models.FormatDate(row.Date), row.CowID, err)
				}
			}

			a.logger.Info("sample data seeded", zap.Int("cows", len(herd)), zap.Int("rows", len(rows)))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d cows and %d lane-log rows\n", len(herd), len(rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "days of history to generate, ending today")
	cmd.Flags().IntVar(&cows, "cows", len(scenarios), "number of sample cows")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "random seed for reproducible data")
	return cmd
}

func newUnseedCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "unseed",
		Short: "Remove sample cows, their lane-log rows and derived data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			removed, err := removeSampleCows(ctx, a.store)
			if err != nil {
				return err
			}

			// Farm summaries of the affected days still count the removed cows.
			today := models.DateOf(a.now())
			for offset := 0; offset < days; offset++ {
				if _, err := a.monitor.SyncFarmSummary(ctx, models.AddDays(today, -offset)); err != nil {
					return err
				}
			}

			a.logger.Info("sample data removed", zap.Int("cows", len(removed)))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d sample cows\n", len(removed))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "days of farm summaries to refresh, ending today")
	return cmd
}

func removeSampleCows(ctx context.Context, store repository.Store) ([]string, error) {
	cows, err := store.ListActiveCows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cows: %w", err)
	}

	var removed []string
	for _, cow := range cows {
		if !strings.HasPrefix(cow.CowID, SampleCowPrefix) {
			continue
		}
		if _, err := store.DeleteLaneLogs(ctx, repository.LaneLogFilter{CowID: cow.CowID}); err != nil {
			return removed, fmt.Errorf("delete lane logs of %s: %w", cow.CowID, err)
		}
		if err := store.DeleteCowDerived(ctx, cow.CowID); err != nil {
			return removed, fmt.Errorf("delete derived rows of %s: %w", cow.CowID, err)
		}
		if err := store.DeleteCow(ctx, cow.CowID); err != nil {
			return removed, fmt.Errorf("delete cow %s: %w", cow.CowID, err)
		}
		removed = append(removed, cow.CowID)
	}
	return removed, nil
}
