package service

// QualityOrder is the fixed preference ranking over the platform's raw
// quality names, best to worst. It drives both the storage probe set
// and the display order of resolved links.
var QualityOrder = []string{
	"chunked", // source
	"source",
	"1080p60",
	"1080p30",
	"720p60",
	"720p30",
	"480p30",
	"360p30",
	"160p30",
	"audio_only",
}

// displayTiers orders extracted variant labels for display. Matched by
// case-insensitive substring so "720p60 (1280x720)" lands on the 720p60
// tier.
var displayTiers = []string{
	"Source",
	"1080p60",
	"1080p30",
	"1080p",
	"720p60",
	"720p30",
	"720p",
	"480p",
	"360p",
	"160p",
	"audio_only",
}
