package config

import "github.com/binara/printsvc/internal/domain/printing"

// DefaultDevices returns the devices used when none are configured.
// Spool directories must exist before jobs can be written to them.
func DefaultDevices() []DeviceConfig {
	return []DeviceConfig{
		{Name: "lq310", Transport: "spool", Target: "./data/spool/lq310"},
		{Name: "receipt", Transport: "spool", Target: "./data/spool/receipt"},
	}
}

// DefaultProfiles returns the built-in output targets. Configured profiles
// with the same name replace them.
func DefaultProfiles() map[string]printing.DeviceProfile {
	return map[string]printing.DeviceProfile{
		// A4 PDF in points, first baseline 50pt from the left and 800pt from the bottom
		"a4-pdf": {
			Name:        "a4-pdf",
			Kind:        printing.BackendVectorCanvas,
			PageWidth:   70,
			PageLength:  750,
			CharWidth:   7,
			Origin:      printing.Origin{X: 50, Y: 800, BottomLeft: true},
			LineHeights: printing.LineHeights{Title: 24, Normal: 18, Small: 14},
			FontSizes:   printing.FontSizes{Title: 16, Normal: 12, Small: 10},
			FontName:    "Courier",
			PageSize:    printing.PageSize{Width: 595.28, Height: 841.89},
		},
		// EPSON LQ-310 through the Windows-style device context at 180 dpi.
		// One 5 inch form per job: 900 units less the 30 unit top offset.
		"lq310": {
			Name:        "lq310",
			Kind:        printing.BackendDeviceContext,
			Device:      "lq310",
			PageWidth:   80,
			PageLength:  870,
			MaxPages:    1,
			CharWidth:   18,
			Origin:      printing.Origin{X: 30, Y: 30},
			LineHeights: printing.LineHeights{Title: 60, Normal: 40, Small: 30},
			FontSizes:   printing.FontSizes{Title: 45, Normal: 30, Small: 26},
			FontName:    "Courier New",
			ASCIIOnly:   true,
		},
		// EPSON LQ-310 in ESC/P, 5 inch form at 6 lines per inch
		"lq310-raw": {
			Name:        "lq310-raw",
			Kind:        printing.BackendESCP,
			Device:      "lq310",
			PageWidth:   80,
			PageLength:  30,
			CharWidth:   1,
			LineHeights: printing.LineHeights{Title: 1, Normal: 1, Small: 1},
			ASCIIOnly:   true,
		},
		// 80 mm thermal receipt printer
		"receipt-80mm": {
			Name:        "receipt-80mm",
			Kind:        printing.BackendESCPOS,
			Device:      "receipt",
			PageWidth:   48,
			CharWidth:   1,
			LineHeights: printing.LineHeights{Title: 1, Normal: 1, Small: 1},
			CodePage:    printing.CodePagePC858,
			Cut:         printing.CutPartial,
		},
	}
}
