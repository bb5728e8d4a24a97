package panel

// PanelBuilderOption is a functional option for configuring a Panel during construction.
// Use the With* functions to create options.
type PanelBuilderOption func(*panel)

// WithRect sets the panel's rectangle.
//
// Parameters:
//   - x, y: the top-left corner in canvas coordinates
//   - width, height: the panel size in canvas units
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithRect(x, y, width, height float32) PanelBuilderOption {
	return func(p *panel) {
		p.x, p.y = x, y
		p.width, p.height = width, height
	}
}

// WithZ sets the panel's depth. Higher z draws on top when depth testing is
// enabled.
//
// Parameters:
//   - z: the depth value
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithZ(z float32) PanelBuilderOption {
	return func(p *panel) {
		p.z = z
	}
}

// WithFill sets the panel's fill color.
//
// Parameters:
//   - r, g, b, a: RGBA color components in [0, 1]
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithFill(r, g, b, a float32) PanelBuilderOption {
	return func(p *panel) {
		p.fill = [4]float32{r, g, b, a}
	}
}

// WithBorder sets the panel's border color and width. The width is a fraction
// of the panel's smaller UV extent; 0 disables the border.
//
// Parameters:
//   - r, g, b, a: RGBA border color components in [0, 1]
//   - width: the border width as a UV fraction
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithBorder(r, g, b, a, width float32) PanelBuilderOption {
	return func(p *panel) {
		p.borderColor = [4]float32{r, g, b, a}
		p.borderWidth = width
	}
}

// WithOpacity sets the panel's overall opacity.
//
// Parameters:
//   - opacity: opacity in [0, 1]
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithOpacity(opacity float32) PanelBuilderOption {
	return func(p *panel) {
		p.opacity = opacity
	}
}

// WithCornerRadius sets the panel's corner radius parameter.
//
// Parameters:
//   - radius: the corner radius
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithCornerRadius(radius float32) PanelBuilderOption {
	return func(p *panel) {
		p.cornerRadius = radius
	}
}

// WithClipRect restricts the panel's visible region to the given rectangle in
// canvas coordinates.
//
// Parameters:
//   - minX, minY, maxX, maxY: the clip bounds
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithClipRect(minX, minY, maxX, maxY float32) PanelBuilderOption {
	return func(p *panel) {
		p.clipRect = [4]float32{minX, minY, maxX, maxY}
	}
}
