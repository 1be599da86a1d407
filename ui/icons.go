// Package ui provides the graphical user interface for the Bitmask client.
// This file contains icon generation for the status panel and the tray.
package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/yllada/bitmask-client/statuspanel"
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	FillColor   color.RGBA
	BorderColor color.RGBA
	AccentColor color.RGBA
	SymbolColor color.RGBA
	Symbol      statuspanel.Icon
}

// stateColors holds the fill, border and accent colors of one state.
type stateColors struct {
	fill, border, accent color.RGBA
}

var iconColors = map[statuspanel.Icon]stateColors{
	statuspanel.IconConnected: {
		fill:   color.RGBA{56, 142, 60, 255},
		border: color.RGBA{76, 175, 80, 255},
		accent: color.RGBA{200, 230, 201, 255},
	},
	statuspanel.IconConnecting: {
		fill:   color.RGBA{229, 165, 10, 255},
		border: color.RGBA{245, 194, 17, 255},
		accent: color.RGBA{249, 240, 107, 255},
	},
	statuspanel.IconError: {
		fill:   color.RGBA{192, 28, 40, 255},
		border: color.RGBA{224, 27, 36, 255},
		accent: color.RGBA{246, 97, 81, 255},
	},
}

// NewIconConfig returns the config for icon in variant v. The light set
// draws a white symbol for dark backgrounds, the plain set a dark one.
func NewIconConfig(icon statuspanel.Icon, v statuspanel.Variant, size int) IconConfig {
	colors := iconColors[icon]
	cfg := IconConfig{
		Size:        size,
		FillColor:   colors.fill,
		BorderColor: colors.border,
		AccentColor: colors.accent,
		SymbolColor: color.RGBA{255, 255, 255, 255},
		Symbol:      icon,
	}
	if v == statuspanel.VariantPlain {
		cfg.SymbolColor = color.RGBA{46, 52, 54, 255}
		cfg.BorderColor = color.RGBA{46, 52, 54, 255}
	}
	return cfg
}

// IconGenerator generates PNG icons.
type IconGenerator struct {
	config IconConfig
}

// NewIconGenerator creates a new icon generator with the given config.
func NewIconGenerator(config IconConfig) *IconGenerator {
	return &IconGenerator{config: config}
}

// Generate creates a PNG icon and returns the bytes.
func (g *IconGenerator) Generate() []byte {
	size := g.config.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	g.drawShield(img)

	switch g.config.Symbol {
	case statuspanel.IconConnected:
		g.drawCheckmark(img)
	case statuspanel.IconConnecting:
		g.drawDots(img)
	default:
		g.drawCross(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Error("Encoding icon: %v", err)
		return nil
	}
	return buf.Bytes()
}

// drawShield draws the shield shape on the image.
func (g *IconGenerator) drawShield(img *image.RGBA) {
	size := g.config.Size
	centerX := float64(size) / 2
	topY := 1.0
	bottomY := float64(size) - 2
	shieldWidth := float64(size) - 4

	isInShield := func(x, y float64) bool {
		relY := (y - topY) / (bottomY - topY)
		if relY < 0 || relY > 1 {
			return false
		}

		var halfWidth float64
		if relY < 0.5 {
			halfWidth = shieldWidth/2 - relY*0.5
		} else {
			progress := (relY - 0.5) * 2
			halfWidth = (shieldWidth/2 - 0.25) * (1 - progress*progress)
		}

		return x >= centerX-halfWidth && x <= centerX+halfWidth
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if !isInShield(fx, fy) {
				continue
			}

			isBorder := !isInShield(fx-1, fy) || !isInShield(fx+1, fy) ||
				!isInShield(fx, fy-1) || !isInShield(fx, fy+1)

			switch {
			case isBorder:
				img.Set(x, y, g.config.BorderColor)
			case float64(y)/float64(size) < 0.3:
				img.Set(x, y, g.config.AccentColor)
			default:
				img.Set(x, y, g.config.FillColor)
			}
		}
	}
}

// scale maps a coordinate on the 22px design grid to the icon size.
func (g *IconGenerator) scale(v int) int {
	return v * g.config.Size / 22
}

func (g *IconGenerator) set(img *image.RGBA, x, y int) {
	x, y = g.scale(x), g.scale(y)
	if x >= 0 && x < g.config.Size && y >= 0 && y < g.config.Size {
		img.Set(x, y, g.config.SymbolColor)
	}
}

func (g *IconGenerator) drawCheckmark(img *image.RGBA) {
	points := []struct{ x, y int }{
		{6, 11}, {7, 11}, {7, 12}, {8, 12}, {8, 13}, {9, 13},
		{9, 12}, {10, 12}, {10, 11}, {11, 11}, {11, 10}, {12, 10},
		{12, 9}, {13, 9}, {13, 8}, {14, 8},
	}
	for _, p := range points {
		g.set(img, p.x, p.y)
	}
}

func (g *IconGenerator) drawDots(img *image.RGBA) {
	for _, cx := range []int{7, 11, 15} {
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				g.set(img, cx+dx-1, 11+dy)
			}
		}
	}
}

func (g *IconGenerator) drawCross(img *image.RGBA) {
	for i := 0; i <= 6; i++ {
		g.set(img, 8+i, 8+i)
		g.set(img, 14-i, 8+i)
	}
}

type iconKey struct {
	icon    statuspanel.Icon
	variant statuspanel.Variant
	size    int
}

var (
	iconCacheMu sync.Mutex
	iconCache   = make(map[iconKey][]byte)
)

// IconBytes returns the PNG for icon in variant v at size pixels.
func IconBytes(icon statuspanel.Icon, v statuspanel.Variant, size int) []byte {
	key := iconKey{icon, v, size}

	iconCacheMu.Lock()
	defer iconCacheMu.Unlock()

	if data, ok := iconCache[key]; ok {
		return data
	}
	data := NewIconGenerator(NewIconConfig(icon, v, size)).Generate()
	iconCache[key] = data
	return data
}
