package deps

import "ndump/internal/config"

// Requirements lists the external tools the pipeline shells out to.
// dolphin-tool is optional because only GameCube and Wii dumps need it.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "chdman",
			Command:     cfg.ChdmanBinary(),
			Description: "Compresses disc images to CHD (part of MAME)",
		},
		{
			Name:        "dolphin-tool",
			Command:     cfg.DolphinToolBinary(),
			Description: "Converts GameCube and Wii images to RVZ",
			Optional:    true,
		},
	}
}
