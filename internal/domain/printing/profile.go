package printing

// CutMode is the paper cut issued at the end of a receipt
type CutMode string

const (
	CutNone    CutMode = "none"
	CutFull    CutMode = "full"
	CutPartial CutMode = "partial"
)

// Code pages selectable on ESC/POS printers
const (
	CodePagePC437 = "PC437"
	CodePagePC850 = "PC850"
	CodePagePC852 = "PC852"
	CodePagePC858 = "PC858"
)

// IsKnownCodePage reports whether name is a supported ESC/POS code page.
// The empty name keeps the printer's power-on table.
func IsKnownCodePage(name string) bool {
	switch name {
	case "", CodePagePC437, CodePagePC850, CodePagePC852, CodePagePC858:
		return true
	}
	return false
}

// Origin is the position of the first line. Y grows downward unless
// BottomLeft is set, in which case lines are placed at decreasing Y.
type Origin struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	BottomLeft bool    `json:"bottom_left"`
}

// LineHeights are vertical advances per font size class, in device units
type LineHeights struct {
	Title  float64 `json:"title"`
	Normal float64 `json:"normal"`
	Small  float64 `json:"small"`
}

// For returns the line height of a size class
func (l LineHeights) For(size FontSizeClass) float64 {
	switch size {
	case SizeTitle:
		return l.Title
	case SizeSmall:
		return l.Small
	default:
		return l.Normal
	}
}

// FontSizes are font heights per size class in device units
type FontSizes struct {
	Title  float64 `json:"title"`
	Normal float64 `json:"normal"`
	Small  float64 `json:"small"`
}

// For returns the font size of a size class
func (f FontSizes) For(size FontSizeClass) float64 {
	switch size {
	case SizeTitle:
		return f.Title
	case SizeSmall:
		return f.Small
	default:
		return f.Normal
	}
}

// PageSize is the physical page for canvas targets, in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DeviceProfile describes the geometry and capabilities of one output target.
// Raw targets work in character cells: CharWidth and line heights are 1 and
// PageLength counts lines.
type DeviceProfile struct {
	Name        string      `json:"name"`
	Kind        BackendKind `json:"kind"`
	Device      string      `json:"device,omitempty"`
	PageWidth   int         `json:"page_width"`
	PageLength  float64     `json:"page_length"`
	MaxPages    int         `json:"max_pages"`
	CharWidth   float64     `json:"char_width"`
	Origin      Origin      `json:"origin"`
	LineHeights LineHeights `json:"line_heights"`
	FontSizes   FontSizes   `json:"font_sizes"`
	FontName    string      `json:"font_name,omitempty"`
	FontFile    string      `json:"font_file,omitempty"`
	PageSize    PageSize    `json:"page_size"`
	ASCIIOnly   bool        `json:"ascii_only"`
	CodePage    string      `json:"code_page,omitempty"`
	Cut         CutMode     `json:"cut,omitempty"`
}

// DeviceName returns the device the profile writes to, defaulting to the profile name
func (p DeviceProfile) DeviceName() string {
	if p.Device != "" {
		return p.Device
	}
	return p.Name
}

// MultiPage reports whether content past the page budget starts a new page.
// Otherwise the excess is reported as a layout overflow.
func (p DeviceProfile) MultiPage() bool {
	return p.Kind.SupportsPages() && p.MaxPages != 1 && p.PageLength > 0
}

// Validate checks that the profile describes a renderable target
func (p DeviceProfile) Validate() error {
	if p.Name == "" {
		return NewConfigurationError("profile name is required")
	}
	if !p.Kind.IsValid() {
		return NewConfigurationError("profile %q: unknown backend kind %q", p.Name, p.Kind)
	}
	if p.PageWidth < 1 {
		return NewConfigurationError("profile %q: page width must be at least 1 column", p.Name)
	}
	if p.PageLength < 0 {
		return NewConfigurationError("profile %q: page length cannot be negative", p.Name)
	}
	if p.MaxPages < 0 {
		return NewConfigurationError("profile %q: max pages cannot be negative", p.Name)
	}
	if p.CharWidth <= 0 {
		return NewConfigurationError("profile %q: char width must be positive", p.Name)
	}
	for _, size := range []FontSizeClass{SizeTitle, SizeNormal, SizeSmall} {
		if p.LineHeights.For(size) <= 0 {
			return NewConfigurationError("profile %q: %s line height must be positive", p.Name, size)
		}
	}
	if p.PageLength > 0 && p.PageLength < p.LineHeights.Title {
		return NewConfigurationError("profile %q: page length %.0f cannot hold a title line", p.Name, p.PageLength)
	}

	switch p.Kind {
	case BackendVectorCanvas:
		if p.PageSize.Width <= 0 || p.PageSize.Height <= 0 {
			return NewConfigurationError("profile %q: page size is required for %s", p.Name, p.Kind)
		}
		if p.FontSizes.For(SizeNormal) <= 0 {
			return NewConfigurationError("profile %q: font sizes are required for %s", p.Name, p.Kind)
		}
	case BackendDeviceContext:
		if p.FontSizes.For(SizeNormal) <= 0 {
			return NewConfigurationError("profile %q: font sizes are required for %s", p.Name, p.Kind)
		}
	case BackendESCP:
		if p.PageLength < 1 || p.PageLength > 127 {
			return NewConfigurationError("profile %q: ESC/P page length must be 1..127 lines, got %.0f", p.Name, p.PageLength)
		}
	case BackendESCPOS:
		if !IsKnownCodePage(p.CodePage) {
			return NewConfigurationError("profile %q: unknown code page %q", p.Name, p.CodePage)
		}
	}
	switch p.Cut {
	case "", CutNone, CutFull, CutPartial:
	default:
		return NewConfigurationError("profile %q: unknown cut mode %q", p.Name, p.Cut)
	}
	return nil
}
