package writer

import "github.com/achilleasa/polaris-accel/asset/scene"

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write compiled scene
	Write(*scene.CompiledScene) error
}

// Write a compiled scene to a zip bundle.
func WriteScene(sc *scene.CompiledScene, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(sc)
}
