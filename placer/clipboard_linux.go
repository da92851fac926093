//go:build linux

package placer

import "markestedt/pastemd/platform"

// Office apps cannot be detected or scripted here, every placement goes
// through the clipboard
func nativeDocumentPlacer(platform.AppType) DocumentPlacer { return nil }

func nativeSheetPlacer(platform.AppType) SheetPlacer { return nil }
