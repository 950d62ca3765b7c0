// Package model holds the immutable data types shared by every nesting
// package: points and polygons, the Design a sheet is packed with, sheet
// presets, and the Placement/NestingResult pair the engine produces.
package model

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Point is a single 2D coordinate in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a simple closed ring: the last point implicitly connects back
// to Polygon[0]. Polygon[0] is the reference/anchor point used by NFP/IFP.
type Polygon []Point

// BoundingBox is an axis-aligned rectangle with non-negative extents.
type BoundingBox struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies within the box shrunk by margin on every side.
func (b BoundingBox) Contains(p Point, margin float64) bool {
	return p.X >= b.X+margin && p.X <= b.X+b.Width-margin &&
		p.Y >= b.Y+margin && p.Y <= b.Y+b.Height-margin
}

// Shrink returns the box inset by margin on every side. Degenerate (negative
// extent) results are returned as-is; callers check Width/Height >= 0.
func (b BoundingBox) Shrink(margin float64) BoundingBox {
	return BoundingBox{
		X:      b.X + margin,
		Y:      b.Y + margin,
		Width:  b.Width - 2*margin,
		Height: b.Height - 2*margin,
	}
}

// Valid reports whether the box has non-negative area.
func (b BoundingBox) Valid() bool {
	return b.Width >= 0 && b.Height >= 0
}

// Design is an immutable record produced by an ingestion collaborator and
// consumed by the nesting engine. It is never mutated after construction.
type Design struct {
	ID          string
	DisplayName string
	ViewBox     BoundingBox
	BoundingBox BoundingBox
	// Polygons is the ordered sequence of rings that make up the design.
	// Index 0 is conceptually the outline, but MainPolygon below is the
	// collision shape actually used by the engine.
	Polygons  []Polygon
	TotalArea float64
	// SourcePath is the ingestion path this Design was read from, empty for
	// programmatically constructed designs.
	SourcePath string
	// Fingerprint is the NFP cache-key fingerprint of MainPolygon, computed
	// once at construction. The NFP cache does not read it: it fingerprints
	// the polygons it is given on every lookup.
	Fingerprint string
}

// MainPolygon returns the collision shape used throughout the engine: the
// ring with the largest vertex count, not the largest area. This is a
// deliberately preserved quirk; callers that want the principled "largest
// area" behaviour should use MainPolygonByArea instead.
func (d Design) MainPolygon() Polygon {
	if len(d.Polygons) == 0 {
		return nil
	}
	best := d.Polygons[0]
	for _, p := range d.Polygons[1:] {
		if len(p) > len(best) {
			best = p
		}
	}
	return best
}

// MainPolygonByArea returns the ring with the largest absolute shoelace
// area. Kept alongside MainPolygon so callers can opt into the principled
// behaviour without losing vertex-count-selection regression compatibility.
func (d Design) MainPolygonByArea(area func(Polygon) float64) Polygon {
	if len(d.Polygons) == 0 {
		return nil
	}
	best := d.Polygons[0]
	bestArea := area(best)
	for _, p := range d.Polygons[1:] {
		a := area(p)
		if a > bestArea {
			best = p
			bestArea = a
		}
	}
	return best
}

// Fingerprint is a cheap structural identifier for a polygon, used as a
// component of the NFP cache key. It is collision-prone for polygons of
// similar vertex count and area; callers that need exact identity must
// compose it with more cache-key state.
func Fingerprint(p Polygon) string {
	return fmt.Sprintf("p%d_a%d", len(p), int(math.Round(100*shoelaceAreaAbs(p))))
}

func shoelaceAreaAbs(p Polygon) float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	n := len(p)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(sum) / 2
}

// NewDesign computes BoundingBox and TotalArea from the given polygons and
// returns a ready-to-use immutable Design.
func NewDesign(name string, polygons []Polygon) Design {
	d := Design{
		ID:          uuid.New().String()[:8],
		DisplayName: name,
		Polygons:    polygons,
	}
	d.BoundingBox = unionBoundingBox(polygons)
	d.ViewBox = d.BoundingBox
	for _, p := range polygons {
		d.TotalArea += shoelaceAreaAbs(p)
	}
	d.Fingerprint = Fingerprint(d.MainPolygon())
	return d
}

func unionBoundingBox(polys []Polygon) BoundingBox {
	first := true
	var minX, minY, maxX, maxY float64
	for _, poly := range polys {
		for _, p := range poly {
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	if first {
		return BoundingBox{}
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// SheetPreset is one row of the static sheet-size catalogue.
type SheetPreset struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Width    float64 `json:"width_mm"`
	Height   float64 `json:"height_mm"`
	Category string  `json:"category"`
}

// Rotation is a placement angle in degrees. The engine is free to compute
// any real value; callers that need a quantised {0,90,180,270} policy must
// enforce it explicitly — this type is never silently truncated.
type Rotation float64

// Placement is one committed copy of a Design on a sheet. X,Y is the
// translation applied after rotating the design about its bounding-box
// centre, the "rendered" frame.
type Placement struct {
	DesignID string
	X, Y     float64
	Rotation Rotation
}

// NestingResult is the outcome of packing as many copies of one Design as
// possible onto one sheet.
type NestingResult struct {
	Sheet      SheetPreset
	Placements []Placement
	Count      int
	Efficiency float64 // percent, [0,100]
	UsedArea   float64
	WastedArea float64
	Warning    bool // some placement is within 3mm of the sheet edge
	Strategy   string
}

// Algorithm selects which nesting strategies the driver runs. Every value
// runs the grid/rotation sweep, the mixed-rotation grid packer and the
// NFP-driven bottom-left-fill; AlgorithmNFPGA adds the genetic search.
type Algorithm string

const (
	AlgorithmFast  Algorithm = "fast"    // same strategy set as AlgorithmNFP
	AlgorithmNFP   Algorithm = "nfp"     // sweep + mixed-rotation grid + NFP bottom-left-fill
	AlgorithmNFPGA Algorithm = "nfp-ga"  // AlgorithmNFP's strategies plus genetic search over order/rotation, BLF fitness
)

// GAConfig holds the genetic search parameters.
type GAConfig struct {
	PopulationSize int       `json:"population_size"`
	Generations    int       `json:"generations"`
	MutationRate   float64   `json:"mutation_rate"`
	CrossoverRate  float64   `json:"crossover_rate"`
	EliteCount     int       `json:"elite_count"`
	TournamentSize int       `json:"tournament_size"`
	RotationAngles []float64 `json:"rotation_angles"`
}

// DefaultGAConfig returns sensible defaults for the genetic search.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize: 30,
		Generations:    50,
		MutationRate:   0.10,
		CrossoverRate:  0.80,
		EliteCount:     2,
		TournamentSize: 3,
		RotationAngles: []float64{0, 90, 180, 270},
	}
}

// Config holds the recognised nesting options.
type Config struct {
	Margin       float64   `json:"margin_mm"`     // mm, >= 0
	RotationStep float64   `json:"rotation_step"` // degrees; divides 360
	GridStep     float64   `json:"grid_step"`     // BLF base grid step; defaults to Margin
	Algorithm    Algorithm `json:"algorithm"`
	GA           GAConfig  `json:"ga"`
	// Seed threads the random-number source so runs are reproducible.
	Seed int64 `json:"seed"`
}

// AllowedRotations returns the rotation angle set implied by RotationStep.
func (c Config) AllowedRotations() []float64 {
	if c.RotationStep <= 0 || c.RotationStep > 360 {
		return []float64{0}
	}
	var angles []float64
	for a := 0.0; a < 360; a += c.RotationStep {
		angles = append(angles, a)
	}
	return angles
}

// DefaultConfig returns sensible defaults for a new nesting job.
func DefaultConfig() Config {
	return Config{
		Margin:       3.0,
		RotationStep: 90,
		GridStep:     0, // resolved to Margin by callers when zero
		Algorithm:    AlgorithmNFP,
		GA:           DefaultGAConfig(),
		Seed:         1,
	}
}

// EdgeWarningDistance is the "within 3mm of a sheet edge" warning threshold.
const EdgeWarningDistance = 3.0

// ComputeResult fills in Count/Efficiency/UsedArea/WastedArea/Warning from
// the given placements.
func ComputeResult(sheet SheetPreset, placements []Placement, designArea float64, minDistanceToBounds func(Placement) float64) NestingResult {
	r := NestingResult{
		Sheet:      sheet,
		Placements: placements,
		Count:      len(placements),
	}
	sheetArea := sheet.Width * sheet.Height
	r.UsedArea = float64(r.Count) * designArea
	if sheetArea > 0 {
		r.Efficiency = 100 * float64(r.Count) * designArea / sheetArea
	}
	r.WastedArea = sheetArea - r.UsedArea
	if minDistanceToBounds != nil {
		for _, p := range placements {
			if minDistanceToBounds(p) < EdgeWarningDistance {
				r.Warning = true
				break
			}
		}
	}
	return r
}
