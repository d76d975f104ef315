package printing

// DocType represents the kind of clinic document that can be printed
type DocType string

const (
	DocTypeBill              DocType = "BILL"
	DocTypeServiceSummary    DocType = "SERVICE_SUMMARY"
	DocTypeServiceCostReport DocType = "SERVICE_COST_REPORT"
)

// IsValid checks if the DocType is a valid value
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeBill, DocTypeServiceSummary, DocTypeServiceCostReport:
		return true
	}
	return false
}

// String returns the string representation of DocType
func (d DocType) String() string {
	return string(d)
}

// BackendKind identifies one of the output encoders
type BackendKind string

const (
	BackendVectorCanvas  BackendKind = "vector_canvas"
	BackendDeviceContext BackendKind = "device_context"
	BackendESCP          BackendKind = "escp"
	BackendESCPOS        BackendKind = "escpos"
)

// IsValid checks if the BackendKind is a valid value
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendVectorCanvas, BackendDeviceContext, BackendESCP, BackendESCPOS:
		return true
	}
	return false
}

// String returns the string representation of BackendKind
func (k BackendKind) String() string {
	return string(k)
}

// SupportsPages reports whether the backend has a page concept.
// ESC/POS receipts are a continuous strip.
func (k BackendKind) SupportsPages() bool {
	return k != BackendESCPOS
}

// WritesToDevice reports whether output goes to a named device rather than a file
func (k BackendKind) WritesToDevice() bool {
	return k != BackendVectorCanvas
}

// AllBackendKinds returns all valid BackendKind values
func AllBackendKinds() []BackendKind {
	return []BackendKind{BackendVectorCanvas, BackendDeviceContext, BackendESCP, BackendESCPOS}
}

// Alignment is the horizontal placement of text in a column or line
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// IsValid checks if the Alignment is a valid value
func (a Alignment) IsValid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// OrDefault returns left for the zero value
func (a Alignment) OrDefault() Alignment {
	if a == "" {
		return AlignLeft
	}
	return a
}

// Weight is the font weight of a style directive
type Weight string

const (
	WeightNormal Weight = "normal"
	WeightBold   Weight = "bold"
)

// FontSizeClass selects one of the profile's three font sizes
type FontSizeClass string

const (
	SizeTitle  FontSizeClass = "title"
	SizeNormal FontSizeClass = "normal"
	SizeSmall  FontSizeClass = "small"
)

// IsValid checks if the FontSizeClass is a valid value
func (s FontSizeClass) IsValid() bool {
	switch s {
	case SizeTitle, SizeNormal, SizeSmall:
		return true
	}
	return false
}

// Overflow is the policy applied to cell text wider than its column
type Overflow string

const (
	OverflowWrap     Overflow = "wrap"
	OverflowTruncate Overflow = "truncate"
	OverflowEllipsis Overflow = "ellipsis"
	// OverflowReject fails validation instead of altering the value.
	// Money and count columns use it.
	OverflowReject Overflow = "reject"
)

// IsValid checks if the Overflow is a valid value
func (o Overflow) IsValid() bool {
	switch o {
	case OverflowWrap, OverflowTruncate, OverflowEllipsis, OverflowReject:
		return true
	}
	return false
}

// OutcomeStatus is the status reported back to the caller
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRendering JobStatus = "RENDERING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRendering, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRendering || target == JobStatusFailed
	case JobStatusRendering:
		return target == JobStatusCompleted || target == JobStatusFailed
	}
	return false
}
