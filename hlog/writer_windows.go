//go:build windows
// +build windows

package hlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
)

const EVENT_SOURCE = "MyVaillant"

// Event log for initialization traces, opened on first use
var debugLog *eventlog.Log

func debugInit(msg string) {
	if os.Getenv("MYVAILLANT_LOG_INIT") == "" {
		return
	}
	if debugLog == nil {
		if err := eventlog.InstallAsEventCreate(EVENT_SOURCE, eventlog.Info|eventlog.Warning|eventlog.Error); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install event source: %v\n", err)
		}
		debugLog, _ = eventlog.Open(EVENT_SOURCE)
	}
	if debugLog != nil {
		debugLog.Info(1, EVENT_SOURCE+"#Init: "+msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s#Init: %s\n", EVENT_SOURCE, msg)
	}
}

func IsTerminal() bool {
	isService, err := svc.IsWindowsService()
	if err == nil && isService {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func getLogDir() string {
	if isService, _ := svc.IsWindowsService(); isService {
		return filepath.Join(filepath.VolumeName(os.Getenv("SystemDrive")), "ProgramData", EVENT_SOURCE, "logs")
	}

	appData := os.Getenv("LOCALAPPDATA")
	if appData == "" {
		appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
	}
	return filepath.Join(appData, EVENT_SOURCE, "logs")
}
