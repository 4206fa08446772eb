package predict

import "strings"

// Profiles maps the job's size tier onto externally identified model
// versions.
type Profiles struct {
	Standard string
	High     string
}

// ForSize selects the profile for a size tier. Only the high tier is special;
// unknown or missing tiers fall back to standard rather than failing.
func (p Profiles) ForSize(videoSize string) string {
	if strings.EqualFold(strings.TrimSpace(videoSize), "1080p") {
		return p.High
	}
	return p.Standard
}
