package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/tracer"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
)

// Results that differ by more than this distance count as mismatches.
const benchDistTolerance = 1e-3

// Benchmark all acceleration strategies of a scene with random rays.
func BenchScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	numRays := ctx.Int("rays")
	if numRays < 1 {
		return fmt.Errorf("the number of rays must be positive")
	}

	if addr := ctx.String("metrics-addr"); addr != "" {
		server := &http.Server{Addr: addr, Handler: promhttp.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("metrics server: %s", err.Error())
			}
		}()
		defer server.Close()
		logger.Noticef("serving metrics on http://%s/metrics", addr)
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	tracers, err := tracer.FromCompiledScene(sc)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	rays := randomRays(rng, sc.Source.Bounds(), numRays)

	rounds := ctx.Int("rounds")
	if rounds < 1 {
		rounds = 1
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Rays", "Hits", "Best time", "Mrays/s", "Mismatches"})

	var reference []tracer.Result
	for _, tr := range tracers {
		logger.Infof("benchmarking %s tracer (%d rounds)", tr.Id(), rounds)

		batch := tracer.NewBatch(tr, ctx.Int("workers"), tracer.NewPerfectScheduler())
		var (
			results []tracer.Result
			best    tracer.BatchStats
		)
		for round := 0; round < rounds; round++ {
			var stats tracer.BatchStats
			results, stats = batch.Trace(rays)
			if round == 0 || stats.Elapsed < best.Elapsed {
				best = stats
			}
		}

		// The brute force tracer is always first and serves as the reference
		mismatches := "-"
		if reference == nil {
			reference = results
		} else {
			mismatches = fmt.Sprintf("%d", countMismatches(reference, results))
		}

		table.Append([]string{
			tr.Id(),
			fmt.Sprintf("%d", best.Rays),
			fmt.Sprintf("%d", best.Hits),
			best.Elapsed.Round(time.Microsecond).String(),
			fmt.Sprintf("%.2f", best.Throughput()/1e6),
			mismatches,
		})
	}

	table.Render()
	logger.Noticef("benchmark results (strategy: %s, seed: %d)\n%s", sc.Strategy, ctx.Int64("seed"), buf.String())
	return nil
}

// Generate rays starting on a sphere enclosing the bounds and aimed at
// random points inside them.
func randomRays(rng *rand.Rand, bounds types.AABB, count int) []intersect.Ray {
	if bounds.IsEmpty() {
		bounds = types.NewAABB(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1})
	}
	center := bounds.Center()
	radius := bounds.Extent().Len()

	randomPoint := func() types.Vec3 {
		return types.Vec3{
			bounds.Min[0] + rng.Float32()*(bounds.Max[0]-bounds.Min[0]),
			bounds.Min[1] + rng.Float32()*(bounds.Max[1]-bounds.Min[1]),
			bounds.Min[2] + rng.Float32()*(bounds.Max[2]-bounds.Min[2]),
		}
	}

	rays := make([]intersect.Ray, count)
	for index := range rays {
		var dir types.Vec3
		for dir.Len() < 1e-3 {
			dir = types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		}
		origin := center.Add(dir.Normalize().Mul(radius))
		target := randomPoint()
		if d := target.Sub(origin); d.Len() > 0 {
			rays[index] = intersect.NewRay(origin, d.Normalize())
		} else {
			rays[index] = intersect.NewRay(origin, center.Sub(origin).Normalize())
		}
	}
	return rays
}

// Count the results that disagree with the reference.
func countMismatches(reference, results []tracer.Result) int {
	mismatches := 0
	for index, ref := range reference {
		res := results[index]
		if ref.Ok != res.Ok {
			mismatches++
			continue
		}
		if ref.Ok && (res.Hit.T-ref.Hit.T > benchDistTolerance || ref.Hit.T-res.Hit.T > benchDistTolerance) {
			mismatches++
		}
	}
	return mismatches
}
