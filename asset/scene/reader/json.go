package reader

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/polaris-accel/asset"
	"github.com/achilleasa/polaris-accel/asset/compiler"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/segmentio/encoding/json"
)

var ErrInvalidScene = errors.New("reader: invalid scene")

type jsonSceneReader struct {
	logger log.Logger
	opts   compiler.Options
}

// Create a new reader for JSON scene descriptions.
func newJSONSceneReader(opts compiler.Options) *jsonSceneReader {
	return &jsonSceneReader{
		logger: log.New("json reader"),
		opts:   opts,
	}
}

// Parse a scene description and compile it.
func (r *jsonSceneReader) Read(sceneRes *asset.Resource) (*scene.CompiledScene, error) {
	r.logger.Noticef(`parsing scene description from "%s"`, sceneRes.Path())
	start := time.Now()

	sc, err := ParseScene(sceneRes)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = sceneRes.Path()
	}

	r.logger.Infof(
		"parsed %d spheres, %d boxes and %d triangles in %d ms",
		len(sc.Spheres), len(sc.Boxes), len(sc.Triangles), time.Since(start).Nanoseconds()/1e6,
	)
	return compiler.Compile(sc, r.opts)
}

// Decode and validate a JSON scene description.
func ParseScene(res *asset.Resource) (*scene.Scene, error) {
	sc := &scene.Scene{}
	decoder := json.NewDecoder(res)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(sc); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidScene, res.Path(), err.Error())
	}
	if err := validateScene(sc); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidScene, res.Path(), err.Error())
	}
	return sc, nil
}

func validateScene(sc *scene.Scene) error {
	if _, err := sc.TriangleKernel.Kernel(); err != nil {
		return fmt.Errorf("triangle kernel %q: %s", sc.TriangleKernel, err.Error())
	}

	for index, s := range sc.Spheres {
		if !(s.Radius > 0) {
			return fmt.Errorf("sphere %d: radius must be positive; got %f", index, s.Radius)
		}
	}

	for index, b := range sc.Boxes {
		if b.Bounds().IsEmpty() {
			return fmt.Errorf("box %d: min %v exceeds max %v", index, b.Min, b.Max)
		}
	}
	return nil
}
