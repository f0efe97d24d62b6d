package writer

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/segmentio/encoding/json"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write compiled scene to zip file.
func (w *zipSceneWriter) Write(sc *scene.CompiledScene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}

	err = Encode(zipFile, sc)
	if closeErr := zipFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Encode a compiled scene as a zip bundle. The acceleration structure
// buffers are stored with the exact byte layout consumed by GPU kernels.
func Encode(out io.Writer, sc *scene.CompiledScene) error {
	zw := zip.NewWriter(out)

	type entry struct {
		name string
		data interface{}
	}
	var entries []entry
	if sc.Strategy.HasBvh() {
		entries = append(entries,
			entry{scene.BvhNodesEntry, sc.BvhNodeList},
			entry{scene.BvhPrimsEntry, sc.BvhPrimitiveIndices},
		)
	}
	if sc.Strategy.HasGrid() && sc.Grid != nil {
		entries = append(entries,
			entry{scene.GridMetaEntry, sc.Grid.Metadata},
			entry{scene.GridCoarseEntry, sc.Grid.CoarseCounts},
			entry{scene.GridCellsEntry, sc.Grid.FineCells},
		)
	}

	manifest := sc.Manifest()
	manifest.Entries = []string{scene.SourceEntry}
	for _, e := range entries {
		manifest.Entries = append(manifest.Entries, e.name)
	}

	// Write manifest
	cw, err := zw.Create(scene.ManifestEntry)
	if err != nil {
		return err
	}
	if err = json.NewEncoder(cw).Encode(manifest); err != nil {
		return fmt.Errorf("zipSceneWriter: could not encode manifest: %s", err.Error())
	}

	// Write source geometry
	source := sc.Source
	if source == nil {
		source = &scene.Scene{}
	}
	if cw, err = zw.Create(scene.SourceEntry); err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(source); err != nil {
		return fmt.Errorf("zipSceneWriter: could not encode scene: %s", err.Error())
	}

	// Write acceleration structure buffers
	for _, e := range entries {
		data, err := scene.EncodeBuffer(e.data)
		if err != nil {
			return err
		}
		if cw, err = zw.Create(e.name); err != nil {
			return err
		}
		if _, err = cw.Write(data); err != nil {
			return err
		}
	}

	return zw.Close()
}
