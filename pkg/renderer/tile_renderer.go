package renderer

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Tile is one partition of the image. Tiles of a frame never overlap, so workers write their
// pixels into the shared buffer without locking.
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
}

// NewTile creates a new tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{ID: id, Bounds: bounds}
}

// NewBandGrid splits the image into count horizontal bands of whole rows. Heights differ by at
// most one row; count is clamped to [1, height].
func NewBandGrid(width, height, count int) []*Tile {
	count = max(1, min(count, height))
	tiles := make([]*Tile, 0, count)

	rowsPerBand := height / count
	extraRows := height % count // The first extraRows bands get one more row

	y0 := 0
	for id := 0; id < count; id++ {
		rows := rowsPerBand
		if id < extraRows {
			rows++
		}
		tiles = append(tiles, NewTile(id, image.Rect(0, y0, width, y0+rows)))
		y0 += rows
	}

	return tiles
}

// TileRenderer renders tiles and turns every failure into a PartitionError
type TileRenderer struct {
	raytracer *Raytracer
}

// NewTileRenderer creates a tile renderer on top of a raytracer
func NewTileRenderer(raytracer *Raytracer) *TileRenderer {
	return &TileRenderer{raytracer: raytracer}
}

// RenderTile renders one tile into out. A panic inside the tile is recovered and reported
// against that tile only.
func (tr *TileRenderer) RenderTile(ctx context.Context, tile *Tile, frameSeed uint32, out *PixelBuffer) (stats RenderStats, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &PartitionError{TileID: tile.ID, Bounds: tile.Bounds, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	stats, err = tr.raytracer.RenderBounds(ctx, tile.Bounds, frameSeed, out)
	if err != nil {
		return stats, &PartitionError{TileID: tile.ID, Bounds: tile.Bounds, Err: err}
	}

	stats.Partitions = []PartitionStats{{
		TileID:   tile.ID,
		Bounds:   tile.Bounds,
		Duration: time.Since(start),
	}}
	return stats, nil
}
