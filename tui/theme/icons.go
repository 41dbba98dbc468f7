package theme

import (
	"os"
)

// Nerd Font icons
const (
	nerdIconProject     = ""  // cod-project (U+EB30)
	nerdIconSuccess     = "󰄬" // md-check (U+F012C)
	nerdIconError       = ""  // cod-error (U+EA87)
	nerdIconInfo        = "󰋼" // md-information (U+F02FC)
	nerdIconTaskDone    = "󰄳" // md-checkbox_marked_circle (U+F0133)
	nerdIconTaskPending = "󰄱" // md-checkbox_blank_outline (U+F0131)
	nerdIconPeer        = ""  // fa-user (U+F007)
	nerdIconArrow       = "󰁔" // md-arrow_right (U+F0054)
	nerdIconFilter      = "󱣬" // md-filter_check (U+F18EC)
)

// ASCII fallback icons
const (
	asciiIconProject     = "◆"
	asciiIconSuccess     = "✓"
	asciiIconError       = "x"
	asciiIconInfo        = "i"
	asciiIconTaskDone    = "[x]"
	asciiIconTaskPending = "[ ]"
	asciiIconPeer        = "@"
	asciiIconArrow       = ">"
	asciiIconFilter      = "/"
)

// Icons resolved at startup from UPTASK_ICONS or the "tui.icons" config key.
var (
	IconProject     string
	IconSuccess     string
	IconError       string
	IconInfo        string
	IconTaskDone    string
	IconTaskPending string
	IconPeer        string
	IconArrow       string
	IconFilter      string
)

func init() {
	icons := os.Getenv("UPTASK_ICONS")
	if icons == "" {
		icons = loadTUIConfig().Icons
	}
	UseIcons(icons)
}

// UseIcons switches between the "nerd" (default) and "ascii" icon sets.
func UseIcons(set string) {
	if set == "ascii" {
		IconProject = asciiIconProject
		IconSuccess = asciiIconSuccess
		IconError = asciiIconError
		IconInfo = asciiIconInfo
		IconTaskDone = asciiIconTaskDone
		IconTaskPending = asciiIconTaskPending
		IconPeer = asciiIconPeer
		IconArrow = asciiIconArrow
		IconFilter = asciiIconFilter
		return
	}
	IconProject = nerdIconProject
	IconSuccess = nerdIconSuccess
	IconError = nerdIconError
	IconInfo = nerdIconInfo
	IconTaskDone = nerdIconTaskDone
	IconTaskPending = nerdIconTaskPending
	IconPeer = nerdIconPeer
	IconArrow = nerdIconArrow
	IconFilter = nerdIconFilter
}
