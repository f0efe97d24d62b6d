package reader

import (
	"fmt"

	"github.com/achilleasa/polaris-accel/asset"
	"github.com/achilleasa/polaris-accel/asset/compiler"
	"github.com/achilleasa/polaris-accel/asset/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.CompiledScene, error)
}

// Read scene from file using the default compiler options for scene
// descriptions.
func ReadScene(filename string) (*scene.CompiledScene, error) {
	return ReadSceneWithOptions(filename, compiler.DefaultOptions())
}

// Read scene from a local file or http(s) URL. JSON scene descriptions are
// compiled using opts; compiled scene bundles (.zip) are loaded as-is.
func ReadSceneWithOptions(filename string, opts compiler.Options) (*scene.CompiledScene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch res.Ext() {
	case ".json":
		reader = newJSONSceneReader(opts)
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format %q", res.Ext())
	}
	return reader.Read(res)
}
