package common

// Virtual key codes for the keys the UI layer responds to. Values match GLFW
// key codes, which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87 // W key (ASCII), pan up
	KeyA = 65 // A key (ASCII), pan left
	KeyS = 83 // S key (ASCII), pan down
	KeyD = 68 // D key (ASCII), pan right

	KeySpace     = 32  // Spacebar (ASCII)
	KeyBackspace = 259 // Backspace key (GLFW)
	KeyEsc       = 256 // Escape key (GLFW), closes the window
)
