package models

// Default stroke styling applied when a draw request omits it.
const (
	DefaultColor     = "white"
	DefaultThickness = 3
)

// Message represents one drawn stroke relayed to a room.
type Message struct {
	ID        int64  `json:"id"`        // Strictly increasing within a room
	Path      string `json:"path"`      // Opaque stroke geometry
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
}

// DrawPayload is the stroke data submitted by a writer.
// Pointer fields distinguish "absent" from zero values.
type DrawPayload struct {
	Path      *string `json:"path"`
	Color     *string `json:"color,omitempty"`
	Thickness *int    `json:"thickness,omitempty"`
}

// WithDefaults returns the color and thickness to store, filling absent fields.
func (p DrawPayload) WithDefaults() (color string, thickness int) {
	color = DefaultColor
	if p.Color != nil {
		color = *p.Color
	}
	thickness = DefaultThickness
	if p.Thickness != nil {
		thickness = *p.Thickness
	}
	return color, thickness
}
