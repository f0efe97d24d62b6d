package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/tracer"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Trace a single ray with every available strategy.
func TraceRay(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return err
	}
	dir, err := parseDir(ctx.String("dir"))
	if err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	tracers, err := tracer.FromCompiledScene(sc)
	if err != nil {
		return err
	}

	ray := intersect.NewRay(origin, dir)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Hit", "Distance", "Primitive", "Kind", "Hit point", "Normal", "UV"})
	for _, tr := range tracers {
		hit, ok := tr.Intersect(ray)
		if !ok {
			table.Append([]string{tr.Id(), "false", "-", "-", "-", "-", "-", "-"})
			continue
		}

		surf, err := sc.Source.SurfaceAt(hit.Primitive, ray, hit.T)
		if err != nil {
			return err
		}
		uv := "-"
		if surf.HasUV {
			uv = fmt.Sprintf("(%.3f, %.3f)", surf.UV[0], surf.UV[1])
		}
		table.Append([]string{
			tr.Id(),
			"true",
			fmt.Sprintf("%.5f", hit.T),
			fmt.Sprintf("%d", hit.Primitive),
			sc.Source.PrimitiveKind(hit.Primitive),
			fmtVec3(surf.Point),
			fmtVec3(surf.Normal),
			uv,
		})
	}

	table.Render()
	logger.Noticef("ray origin: %v, dir: %v\n%s", ray.Origin, ray.Dir, buf.String())
	return nil
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
