package scene

// The bundle format version written into the manifest.
const BundleVersion = 1

// Entries of a compiled scene bundle.
const (
	ManifestEntry   = "manifest.json"
	SourceEntry     = "scene.gob"
	BvhNodesEntry   = "bvh_nodes.bin"
	BvhPrimsEntry   = "bvh_prims.bin"
	GridMetaEntry   = "grid_meta.bin"
	GridCoarseEntry = "grid_coarse.bin"
	GridCellsEntry  = "grid_cells.bin"
)

// Manifest describes the contents of a compiled scene bundle.
type Manifest struct {
	Version    int      `json:"version"`
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Strategy   Strategy `json:"strategy"`
	Primitives int      `json:"primitives"`
	BvhNodes   int      `json:"bvh_nodes"`
	GridCells  int      `json:"grid_cells"`
	Entries    []string `json:"entries"`
}

// Generate a manifest for this scene. The entry list is left to the writer.
func (sc *CompiledScene) Manifest() Manifest {
	m := Manifest{
		Version:  BundleVersion,
		Id:       sc.Id,
		Strategy: sc.Strategy,
		BvhNodes: len(sc.BvhNodeList),
	}
	if sc.Source != nil {
		m.Name = sc.Source.Name
		m.Primitives = sc.Source.PrimitiveCount()
	}
	if sc.Grid != nil {
		m.GridCells = len(sc.Grid.FineCells)
	}
	return m
}
