package model

import "time"

// Shared defaults used by the CLI entrypoint and tests.
const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultEventRetention = 30 // days, 0 = disabled
)

// DefaultExcludedProcesses lists noise processes removed from top-app
// rankings by default. They still appear in the raw per-process tables.
var DefaultExcludedProcesses = []string{
	"explorer.exe",
	"ApplicationFrameHost.exe",
	"SearchHost.exe",
	"SearchApp.exe",
	"ShellExperienceHost.exe",
	"StartMenuExperienceHost.exe",
	"TextInputHost.exe",
	"SystemSettings.exe",
	"dwm.exe",
	"csrss.exe",
	"winlogon.exe",
	"taskhostw.exe",
}
