package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"gonum.org/v1/gonum/stat"

	"github.com/achilleasa/lighttracer/asset/scene/reader"
	"github.com/achilleasa/lighttracer/renderer"
	"github.com/achilleasa/lighttracer/scene"
)

// Sample light vertices for a scene and optionally write the packed batches
// to a file.
func SampleScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	cfg, err := loadConfig(ctx.String("config"))
	if err != nil {
		return err
	}
	applyFlags(ctx, &cfg)

	sc, err := reader.ReadScene(ctx.Args().First(), cfg.Compiler)
	if err != nil {
		return err
	}
	if err = sc.CheckCapacity(cfg.TextureSide); err != nil {
		return err
	}

	scheduler, err := cfg.scheduler()
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc, scheduler, cfg.Renderer)
	if err != nil {
		return err
	}

	var out *bufio.Writer
	if outFile := ctx.String("out"); outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		out = bufio.NewWriter(f)
		logger.Noticef("writing packed light vertices to %s", outFile)

		return finishOutput(out, f, runRounds(r, out))
	}

	return runRounds(r, nil)
}

// Consume renderer rounds until they are exhausted or sampling is
// interrupted. Batches are appended to out if it is not nil.
func runRounds(r renderer.Renderer, out io.Writer) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for res := range r.Rounds(runCtx) {
		if res.Batch != nil {
			displayRoundStats(r.Stats(), summarizeBatch(res.Batch.Vertices))
			if out != nil {
				if err := writeBatch(out, res.Batch); err != nil {
					return err
				}
			}
		}
		if errors.Is(res.Err, renderer.ErrInterrupted) {
			logger.Notice("sampling interrupted")
			return nil
		}
		if res.Err != nil {
			return res.Err
		}
	}

	return nil
}

// Flush buffered output and close its sink. The first of runErr, the flush
// error and the close error is returned.
func finishOutput(out *bufio.Writer, sink io.Closer, runErr error) error {
	err := runErr
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Write a batch as a little-endian float32 stream using the packed light
// vertex layout.
func writeBatch(w io.Writer, batch *renderer.Batch) error {
	return binary.Write(w, binary.LittleEndian, batch.Pack())
}

// Summary statistics for the flux carried by a batch of light vertices.
type batchSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	Max    float64
}

func summarizeBatch(vertices []scene.LightVertex) batchSummary {
	summary := batchSummary{Count: len(vertices)}
	if len(vertices) == 0 {
		return summary
	}

	weights := make([]float64, len(vertices))
	for idx := range vertices {
		weights[idx] = float64(vertices[idx].Flux().MaxAbsComponent())
	}
	sort.Float64s(weights)

	summary.Mean, summary.StdDev = stat.MeanStdDev(weights, nil)
	summary.Median = stat.Quantile(0.5, stat.Empirical, weights, nil)
	summary.Max = weights[len(weights)-1]
	return summary
}

func displayRoundStats(stats renderer.RoundStats, summary batchSummary) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Batch size", "% of round", "Discarded", "Render time"})
	for _, trStat := range stats.Tracers {
		table.Append([]string{
			trStat.Id,
			fmt.Sprintf("%d", trStat.BatchSize),
			fmt.Sprintf("%02.1f %%", trStat.RoundPercent),
			fmt.Sprintf("%d", trStat.Discarded),
			trStat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d", stats.BatchSize), "", "TOTAL", stats.RenderTime.String()})
	table.Render()

	logger.Noticef(
		"round %d statistics\n%sflux: mean %.4f, stddev %.4f, median %.4f, max %.4f",
		stats.Round, buf.String(), summary.Mean, summary.StdDev, summary.Median, summary.Max,
	)
}
